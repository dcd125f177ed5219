// Package store es la frontera con la base de datos de documentos: consultas completas
// de cada colección, escrituras por clave y un lote atómico. Cada escritura exitosa
// se anuncia en el hub para que los suscriptores relean la colección.
package store

import (
	"context"
	"time"

	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"
)

type Store interface {
	ListProducts(ctx context.Context) ([]models.Product, error)         // ordenados por ID
	ListTransactions(ctx context.Context) ([]models.Transaction, error) // fecha descendente
	ListMarked(ctx context.Context) ([]string, error)

	CountProducts(ctx context.Context) (int64, error)
	CountTransactionsForProduct(ctx context.Context, productID string) (int64, error)

	SetProduct(ctx context.Context, p models.Product) error // crea o sobrescribe por ID
	DeleteProduct(ctx context.Context, id string) error

	// CreateTransaction: el store asigna ID y fecha
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	SetMarked(ctx context.Context, transactionID string, at time.Time) error
	DeleteMarked(ctx context.Context, transactionID string) error

	// CommitBatch: todo o nada
	CommitBatch(ctx context.Context, ops []Op) error
}

// Publisher: recibe los avisos de cambio (realtime.Hub)
type Publisher interface {
	Publish(c realtime.Change)
}

type OpKind int

const (
	OpSetProduct OpKind = iota + 1
	OpCreateTransaction
)

// Op: escritura dentro de un lote
type Op struct {
	Kind        OpKind
	Product     models.Product
	Transaction models.Transaction
}

func SetProductOp(p models.Product) Op {
	return Op{Kind: OpSetProduct, Product: p}
}

func CreateTransactionOp(t models.Transaction) Op {
	return Op{Kind: OpCreateTransaction, Transaction: t}
}

func (k OpKind) collection() string {
	switch k {
	case OpSetProduct:
		return realtime.Products
	case OpCreateTransaction:
		return realtime.Transactions
	}
	return ""
}

// touched: colecciones afectadas por un lote, sin repetir
func touched(ops []Op) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 2)
	for _, op := range ops {
		c := op.Kind.collection()
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(realtime.Change) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
