package store

import (
	"context"
	"fmt"
	"time"

	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore: colecciones como tablas de PostgreSQL
type GormStore struct {
	db  *gorm.DB
	pub Publisher
	now func() time.Time
}

func NewGormStore(db *gorm.DB, pub Publisher) *GormStore {
	return &GormStore{db: db, pub: publisherOrNop(pub), now: time.Now}
}

func (s *GormStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *GormStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.db.WithContext(ctx).Order("date desc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *GormStore) ListMarked(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.MarkedRow{}).Pluck("transaction_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list marked rows: %w", err)
	}
	return ids, nil
}

func (s *GormStore) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *GormStore) CountTransactionsForProduct(ctx context.Context, productID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("product_id = ?", productID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count transactions for %s: %w", productID, err)
	}
	return n, nil
}

func (s *GormStore) SetProduct(ctx context.Context, p models.Product) error {
	if err := upsertProduct(s.db.WithContext(ctx), p); err != nil {
		return fmt.Errorf("set product %s: %w", p.ID, err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.Products})
	return nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.Products})
	return nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	t.ID = uuid.NewString()
	t.Date = s.now()
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.Transactions})
	return t, nil
}

func (s *GormStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.Transactions})
	return nil
}

func (s *GormStore) SetMarked(ctx context.Context, transactionID string, at time.Time) error {
	row := models.MarkedRow{TransactionID: transactionID, MarkedAt: at}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"marked_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("mark %s: %w", transactionID, err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.MarkedRows})
	return nil
}

func (s *GormStore) DeleteMarked(ctx context.Context, transactionID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.MarkedRow{}, "transaction_id = ?", transactionID).Error; err != nil {
		return fmt.Errorf("unmark %s: %w", transactionID, err)
	}
	s.pub.Publish(realtime.Change{Collection: realtime.MarkedRows})
	return nil
}

// CommitBatch: una sola transacción SQL; todas las transacciones creadas comparten la fecha del lote
func (s *GormStore) CommitBatch(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, op := range ops {
			switch op.Kind {
			case OpSetProduct:
				if err := upsertProduct(tx, op.Product); err != nil {
					return fmt.Errorf("op %d set product %s: %w", i, op.Product.ID, err)
				}
			case OpCreateTransaction:
				t := op.Transaction
				t.ID = uuid.NewString()
				t.Date = now
				if err := tx.Create(&t).Error; err != nil {
					return fmt.Errorf("op %d create transaction: %w", i, err)
				}
			default:
				return fmt.Errorf("op %d: unknown kind %d", i, op.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	for _, c := range touched(ops) {
		s.pub.Publish(realtime.Change{Collection: c})
	}
	return nil
}

func upsertProduct(db *gorm.DB, p models.Product) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "subwarehouse", "updated_at"}),
	}).Create(&p).Error
}
