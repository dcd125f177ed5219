package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"

	"github.com/google/uuid"
)

// Nombres de operación para inyectar fallos en MemoryStore
const (
	OpNameListProducts     = "ListProducts"
	OpNameListTransactions = "ListTransactions"
	OpNameListMarked       = "ListMarked"
	OpNameCountProducts    = "CountProducts"
	OpNameCountForProduct  = "CountTransactionsForProduct"
	OpNameSetProduct       = "SetProduct"
	OpNameDeleteProduct    = "DeleteProduct"
	OpNameCreateTx         = "CreateTransaction"
	OpNameDeleteTx         = "DeleteTransaction"
	OpNameSetMarked        = "SetMarked"
	OpNameDeleteMarked     = "DeleteMarked"
	OpNameCommitBatch      = "CommitBatch"
)

// MemoryStore: store en memoria para desarrollo sin base de datos y para tests
type MemoryStore struct {
	mu           sync.Mutex
	products     map[string]models.Product
	transactions map[string]models.Transaction
	marked       map[string]time.Time
	failures     map[string]error
	pub          Publisher
	now          func() time.Time
}

func NewMemoryStore(pub Publisher) *MemoryStore {
	return &MemoryStore{
		products:     make(map[string]models.Product),
		transactions: make(map[string]models.Transaction),
		marked:       make(map[string]time.Time),
		failures:     make(map[string]error),
		pub:          publisherOrNop(pub),
		now:          time.Now,
	}
}

// SetClock: reemplaza el reloj del servidor (tests)
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext: la próxima llamada a la operación devuelve err sin efecto
func (s *MemoryStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// must be called with mu held
func (s *MemoryStore) injected(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpNameListProducts); err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpNameListTransactions); err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *MemoryStore) ListMarked(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpNameListMarked); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(s.marked))
	for id := range s.marked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) CountProducts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpNameCountProducts); err != nil {
		return 0, err
	}
	return int64(len(s.products)), nil
}

func (s *MemoryStore) CountTransactionsForProduct(ctx context.Context, productID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpNameCountForProduct); err != nil {
		return 0, err
	}

	var n int64
	for _, t := range s.transactions {
		if t.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SetProduct(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	if err := s.injected(OpNameSetProduct); err != nil {
		s.mu.Unlock()
		return err
	}
	s.putProduct(p)
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.Products})
	return nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.injected(OpNameDeleteProduct); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.products, id)
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.Products})
	return nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	if err := s.injected(OpNameCreateTx); err != nil {
		s.mu.Unlock()
		return models.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.Date = s.now()
	s.transactions[t.ID] = t
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.Transactions})
	return t, nil
}

func (s *MemoryStore) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.injected(OpNameDeleteTx); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.transactions, id)
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.Transactions})
	return nil
}

func (s *MemoryStore) SetMarked(ctx context.Context, transactionID string, at time.Time) error {
	s.mu.Lock()
	if err := s.injected(OpNameSetMarked); err != nil {
		s.mu.Unlock()
		return err
	}
	s.marked[transactionID] = at
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.MarkedRows})
	return nil
}

func (s *MemoryStore) DeleteMarked(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	if err := s.injected(OpNameDeleteMarked); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.marked, transactionID)
	s.mu.Unlock()

	s.pub.Publish(realtime.Change{Collection: realtime.MarkedRows})
	return nil
}

// CommitBatch: valida todo el lote antes de aplicar nada
func (s *MemoryStore) CommitBatch(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	if err := s.injected(OpNameCommitBatch); err != nil {
		s.mu.Unlock()
		return err
	}
	for i, op := range ops {
		if op.Kind != OpSetProduct && op.Kind != OpCreateTransaction {
			s.mu.Unlock()
			return fmt.Errorf("commit batch: op %d: unknown kind %d", i, op.Kind)
		}
	}

	now := s.now()
	for _, op := range ops {
		switch op.Kind {
		case OpSetProduct:
			s.putProduct(op.Product)
		case OpCreateTransaction:
			t := op.Transaction
			t.ID = uuid.NewString()
			t.Date = now
			s.transactions[t.ID] = t
		}
	}
	s.mu.Unlock()

	for _, c := range touched(ops) {
		s.pub.Publish(realtime.Change{Collection: c})
	}
	return nil
}

func (s *MemoryStore) putProduct(p models.Product) {
	now := s.now()
	if existing, ok := s.products[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
}
