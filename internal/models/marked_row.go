package models

import "time"

// MarkedRow: la existencia del registro significa que la transacción está marcada
type MarkedRow struct {
	TransactionID string    `gorm:"primaryKey;size:36" json:"transaction_id"`
	MarkedAt      time.Time `gorm:"not null" json:"marked_at"`
}
