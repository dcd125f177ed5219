package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventario-backend/internal/audit"
	"inventario-backend/internal/importer"
	"inventario-backend/internal/ledger"
	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"
	"inventario-backend/internal/store"

	"github.com/sirupsen/logrus"
)

// View: estado en memoria contra el que se validan las escrituras (dashboard.State)
type View interface {
	Products() []models.Product
	Transactions() []models.Transaction
	Product(id string) (models.Product, bool)
	ProductMap() map[string]models.Product
	ProductsWithStock() []ledger.ProductWithStock
	Stock() map[string]int
	IsMarked(transactionID string) bool
	Marked() []string

	// Reload: relectura sincrónica de las colecciones recién escritas
	Reload(ctx context.Context, collections ...string) error
}

type Service struct {
	store store.Store
	view  View
	audit audit.Recorder
	log   *logrus.Logger
	now   func() time.Time
}

func NewService(st store.Store, view View, rec audit.Recorder, log *logrus.Logger) *Service {
	if rec == nil {
		rec = audit.NopRecorder()
	}
	return &Service{store: st, view: view, audit: rec, log: log, now: time.Now}
}

// NewTransaction: datos de una transacción antes de que el store le asigne ID y fecha
type NewTransaction struct {
	ProductID    string                 `json:"product_id"`
	Quantity     int                    `json:"quantity"`
	Type         models.TransactionType `json:"type"`
	Batch        string                 `json:"batch"`
	Subwarehouse string                 `json:"subwarehouse"`
}

// audit es best-effort: un fallo se registra y no afecta la operación
func (s *Service) record(ctx context.Context, opts audit.LogOptions) {
	if err := s.audit.Record(ctx, opts); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"entity_type": opts.EntityType,
			"entity_id":   opts.EntityID,
		}).Warn("audit log no guardado")
	}
}

// echo: espera el eco de la escritura antes de volver, así la siguiente validación la ve.
// Un fallo deja el estado como estaba hasta el próximo aviso del hub.
func (s *Service) echo(ctx context.Context, collections ...string) {
	if err := s.view.Reload(ctx, collections...); err != nil {
		s.log.WithError(err).WithField("collections", collections).Warn("relectura del estado falló")
	}
}

func normalizeProduct(p models.Product) (models.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Subwarehouse = strings.TrimSpace(p.Subwarehouse)
	if p.ID == "" || p.Name == "" || p.Subwarehouse == "" {
		return p, ErrRequiredFields
	}
	return p, nil
}

// AddProduct: alta con ID elegido por el usuario; el ID no puede repetirse
func (s *Service) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p, err := normalizeProduct(p)
	if err != nil {
		return p, err
	}
	if _, exists := s.view.Product(p.ID); exists {
		return p, fmt.Errorf("%s: %w", p.ID, ErrDuplicateProduct)
	}

	if err := s.store.SetProduct(ctx, p); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "set_product", "product_id": p.ID}).Error("alta de producto falló")
		return p, remote("set_product", msgAddProductFailed, err)
	}
	s.echo(ctx, realtime.Products)

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    p.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Producto %s (%s) agregado", p.ID, p.Name),
		After:       p,
	})
	return p, nil
}

// UpdateProduct: solo nombre y subalmacén; el ID es inmutable
func (s *Service) UpdateProduct(ctx context.Context, id, name, subwarehouse string) (models.Product, error) {
	p, err := normalizeProduct(models.Product{ID: id, Name: name, Subwarehouse: subwarehouse})
	if err != nil {
		return p, err
	}
	before, exists := s.view.Product(p.ID)
	if !exists {
		return p, fmt.Errorf("%s: %w", p.ID, ErrProductNotFound)
	}

	if err := s.store.SetProduct(ctx, p); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "set_product", "product_id": p.ID}).Error("edición de producto falló")
		return p, remote("set_product", msgUpdateProductFailed, err)
	}
	s.echo(ctx, realtime.Products)

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    p.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Producto %s actualizado", p.ID),
		Before:      before,
		After:       p,
	})
	return p, nil
}

// CheckProductDeletable: paso previo a la confirmación; bloquea si hay transacciones
func (s *Service) CheckProductDeletable(ctx context.Context, id string) error {
	if _, exists := s.view.Product(id); !exists {
		return fmt.Errorf("%s: %w", id, ErrProductNotFound)
	}

	count, err := s.store.CountTransactionsForProduct(ctx, id)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "count_transactions", "product_id": id}).Error("conteo de transacciones falló")
		return remote("count_transactions", msgDeleteProductFailed, err)
	}
	if count > 0 {
		return fmt.Errorf("%s tiene %d transacciones: %w", id, count, ErrProductHasTransactions)
	}
	return nil
}

// DeleteProduct: vuelve a verificar las referencias y borra
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.CheckProductDeletable(ctx, id); err != nil {
		return err
	}
	before, _ := s.view.Product(id)

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "delete_product", "product_id": id}).Error("baja de producto falló")
		return remote("delete_product", msgDeleteProductFailed, err)
	}
	s.echo(ctx, realtime.Products)

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityProduct,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Producto %s eliminado", id),
		Before:      before,
	})
	return nil
}

// RecordTransaction: valida y registra; una salida solo se admite si stock >= cantidad.
// El stock se lee del estado en memoria, que ya incluye las escrituras previas del servicio.
// No hay bloqueo: dos salidas simultáneas pueden dejarlo negativo.
func (s *Service) RecordTransaction(ctx context.Context, in NewTransaction) (models.Transaction, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Batch = strings.TrimSpace(in.Batch)
	in.Subwarehouse = strings.TrimSpace(in.Subwarehouse)

	if in.ProductID == "" {
		return models.Transaction{}, ErrRequiredFields
	}
	if in.Quantity <= 0 {
		return models.Transaction{}, ErrInvalidQuantity
	}
	if !in.Type.Valid() {
		return models.Transaction{}, fmt.Errorf("%q: %w", in.Type, ErrInvalidType)
	}

	product, exists := s.view.Product(in.ProductID)
	if !exists {
		return models.Transaction{}, fmt.Errorf("%s: %w", in.ProductID, ErrProductNotFound)
	}

	if in.Type == models.TransactionExit {
		stock := s.view.Stock()[in.ProductID]
		if stock < in.Quantity {
			return models.Transaction{}, &InsufficientStockError{ProductID: in.ProductID, Stock: stock, Requested: in.Quantity}
		}
	}

	subwarehouse := in.Subwarehouse
	if subwarehouse == "" {
		subwarehouse = product.Subwarehouse
	}

	tx, err := s.store.CreateTransaction(ctx, models.Transaction{
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		Type:         in.Type,
		Batch:        in.Batch,
		Subwarehouse: subwarehouse,
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "create_transaction", "product_id": in.ProductID}).Error("registro de transacción falló")
		return models.Transaction{}, remote("create_transaction", msgRecordFailed, err)
	}
	s.echo(ctx, realtime.Transactions)

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityTransaction,
		EntityID:    tx.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("%s de %d unidades de %s", tx.Type, tx.Quantity, tx.ProductID),
		After:       tx,
	})
	return tx, nil
}

// DeleteTransaction: borra la transacción y luego su marca, si la tiene. Son dos escrituras
// separadas: si la segunda falla la marca queda huérfana.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrRequiredFields
	}
	wasMarked := s.view.IsMarked(id)

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "delete_transaction", "transaction_id": id}).Error("baja de transacción falló")
		return remote("delete_transaction", msgDeleteTxFailed, err)
	}
	s.echo(ctx, realtime.Transactions)

	if wasMarked {
		if err := s.store.DeleteMarked(ctx, id); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"op": "delete_marked", "transaction_id": id}).Error("baja de marca falló")
			return remote("delete_marked", msgDeleteTxFailed, err)
		}
		s.echo(ctx, realtime.MarkedRows)
	}

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityTransaction,
		EntityID:    id,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Transacción %s eliminada", id),
	})
	return nil
}

// ToggleMark: marca si no estaba marcada, desmarca si lo estaba. Devuelve el nuevo estado.
func (s *Service) ToggleMark(ctx context.Context, transactionID string) (bool, error) {
	if !s.knownTransaction(transactionID) {
		return false, fmt.Errorf("%s: %w", transactionID, ErrTransactionNotFound)
	}

	if s.view.IsMarked(transactionID) {
		if err := s.store.DeleteMarked(ctx, transactionID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"op": "delete_marked", "transaction_id": transactionID}).Error("desmarcado falló")
			return true, remote("delete_marked", msgToggleMarkFailed, err)
		}
		s.echo(ctx, realtime.MarkedRows)
		s.record(ctx, audit.LogOptions{
			EntityType: audit.EntityMarkedRow,
			EntityID:   transactionID,
			Action:     models.AuditActionUnmark,
		})
		return false, nil
	}

	if err := s.store.SetMarked(ctx, transactionID, s.now()); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"op": "set_marked", "transaction_id": transactionID}).Error("marcado falló")
		return false, remote("set_marked", msgToggleMarkFailed, err)
	}
	s.echo(ctx, realtime.MarkedRows)
	s.record(ctx, audit.LogOptions{
		EntityType: audit.EntityMarkedRow,
		EntityID:   transactionID,
		Action:     models.AuditActionMark,
	})
	return true, nil
}

func (s *Service) knownTransaction(id string) bool {
	for _, t := range s.view.Transactions() {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ImportRows: valida las filas contra el catálogo actual y guarda las válidas en un solo lote
func (s *Service) ImportRows(ctx context.Context, rows [][]string) importer.Result {
	txs, rowErrors := importer.Validate(rows, s.view.ProductMap())

	var commitErr error
	if len(txs) > 0 {
		ops := make([]store.Op, 0, len(txs))
		for _, t := range txs {
			ops = append(ops, store.CreateTransactionOp(t))
		}
		if commitErr = s.store.CommitBatch(ctx, ops); commitErr != nil {
			s.log.WithError(commitErr).WithFields(logrus.Fields{"op": "commit_batch", "rows": len(txs)}).Error("carga masiva falló")
		} else {
			s.echo(ctx, realtime.Transactions)
		}
	}

	res := importer.Summarize(len(txs), rowErrors, commitErr)
	if res.Imported > 0 {
		s.record(ctx, audit.LogOptions{
			EntityType:  audit.EntityImport,
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("%d entradas importadas, %d filas con error", res.Imported, len(rowErrors)),
		})
	}
	return res
}

// SeedIfEmpty: primera ejecución; si no hay productos se carga el catálogo en un solo lote.
// Devuelve la cantidad de productos sembrados.
func (s *Service) SeedIfEmpty(ctx context.Context, products []models.Product) (int, error) {
	count, err := s.store.CountProducts(ctx)
	if err != nil {
		s.log.WithError(err).WithField("op", "count_products").Error("conteo de productos falló")
		return 0, remote("count_products", msgSeedFailed, err)
	}
	if count > 0 || len(products) == 0 {
		return 0, nil
	}

	ops := make([]store.Op, 0, len(products))
	for _, p := range products {
		ops = append(ops, store.SetProductOp(p))
	}
	if err := s.store.CommitBatch(ctx, ops); err != nil {
		s.log.WithError(err).WithField("op", "commit_batch").Error("siembra del catálogo falló")
		return 0, remote("commit_batch", msgSeedFailed, err)
	}
	s.echo(ctx, realtime.Products)

	s.record(ctx, audit.LogOptions{
		EntityType:  audit.EntityProduct,
		Action:      models.AuditActionSeed,
		Description: fmt.Sprintf("Catálogo inicial cargado con %d productos", len(products)),
	})
	return len(products), nil
}
