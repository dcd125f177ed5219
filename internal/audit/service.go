package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"inventario-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Filter: criterios del listado; vacío = todo
type Filter struct {
	EntityType string
	EntityID   string
	UserID     uint
}

// Recorder: destino del historial de cambios
type Recorder interface {
	Record(ctx context.Context, opts LogOptions) error
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

const (
	EntityProduct     = "product"
	EntityTransaction = "transaction"
	EntityMarkedRow   = "marked_row"
	EntityImport      = "import"
)

// Actor: usuario autenticado que origina el cambio
type Actor struct {
	UserID   uint
	UserName string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom: Actor del contexto; el cero si no hay (p. ej. siembra al arrancar)
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

func buildLog(ctx context.Context, opts LogOptions) models.AuditLog {
	// PostgreSQL jsonb: "null" en vez de cadena vacía
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	actor := ActorFrom(ctx)
	return models.AuditLog{
		UserID:      actor.UserID,
		UserName:    actor.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
}

// Writer: historial en la tabla audit_logs
type Writer struct {
	db *gorm.DB
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

func (w *Writer) Record(ctx context.Context, opts LogOptions) error {
	log := buildLog(ctx, opts)
	if err := w.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("audit log no guardado: %w", err)
	}
	return nil
}

func (w *Writer) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	dbq := w.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.UserID > 0 {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		dbq = dbq.Where("entity_id = ?", f.EntityID)
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit logs no listados: %w", err)
	}
	return logs, nil
}

// MemoryRecorder: historial en memoria (sin base de datos y en tests)
type MemoryRecorder struct {
	mu     sync.Mutex
	logs   []models.AuditLog
	nextID uint
	now    func() time.Time
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{now: time.Now}
}

func (m *MemoryRecorder) Record(ctx context.Context, opts LogOptions) error {
	log := buildLog(ctx, opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	log.ID = m.nextID
	log.CreatedAt = m.now()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MemoryRecorder) List(_ context.Context, f Filter) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.AuditLog, 0, len(m.logs))
	for _, l := range m.logs {
		if f.UserID > 0 && l.UserID != f.UserID {
			continue
		}
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && l.EntityID != f.EntityID {
			continue
		}
		out = append(out, l)
	}

	// más reciente primero
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, LogOptions) error { return nil }

func (nopRecorder) List(context.Context, Filter) ([]models.AuditLog, error) {
	return []models.AuditLog{}, nil
}

// NopRecorder: descarta todo
func NopRecorder() Recorder { return nopRecorder{} }
