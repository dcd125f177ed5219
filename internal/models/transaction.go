package models

import "time"

type TransactionType string

const (
	TransactionEntry TransactionType = "ENTRY"
	TransactionExit  TransactionType = "EXIT"
)

// Valid: solo ENTRY y EXIT son direcciones aceptadas
func (t TransactionType) Valid() bool {
	return t == TransactionEntry || t == TransactionExit
}

// Transaction: movimiento de entrada/salida. Nunca se modifica, solo se crea o elimina.
type Transaction struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	ProductID    string          `gorm:"size:50;index;not null" json:"product_id"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Type         TransactionType `gorm:"size:10;not null;index" json:"type"`
	Date         time.Time       `gorm:"index;not null" json:"date"`             // servidor asigna la fecha
	Batch        string          `gorm:"size:100" json:"batch,omitempty"`        // lote (opcional)
	Subwarehouse string          `gorm:"size:100" json:"subwarehouse,omitempty"` // subalmacén (opcional)
}
