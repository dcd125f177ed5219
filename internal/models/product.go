package models

import "time"

// Product: catálogo del almacén. ID es el código ITEM y también la clave del documento.
type Product struct {
	ID           string    `gorm:"primaryKey;size:50" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Subwarehouse string    `gorm:"size:100;not null;index" json:"subwarehouse"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
