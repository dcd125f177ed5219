// Package ledger calcula el stock de cada producto a partir del historial completo de transacciones.
package ledger

import "inventario-backend/internal/models"

// ProductWithStock: producto con su stock derivado
type ProductWithStock struct {
	models.Product
	Stock int `json:"stock"`
}

// Delta: +cantidad para ENTRY, -cantidad para cualquier otra dirección
func Delta(t models.Transaction) int {
	if t.Type == models.TransactionEntry {
		return t.Quantity
	}
	return -t.Quantity
}

// Stock: suma de entradas menos salidas por producto. Todo producto conocido arranca en 0;
// las transacciones de productos desconocidos también acumulan bajo su ID.
func Stock(products []models.Product, txs []models.Transaction) map[string]int {
	stock := make(map[string]int, len(products))
	for _, p := range products {
		stock[p.ID] = 0
	}
	for _, t := range txs {
		stock[t.ProductID] += Delta(t)
	}
	return stock
}

// WithStock: une catálogo y stock conservando el orden del catálogo
func WithStock(products []models.Product, stock map[string]int) []ProductWithStock {
	out := make([]ProductWithStock, 0, len(products))
	for _, p := range products {
		out = append(out, ProductWithStock{Product: p, Stock: stock[p.ID]})
	}
	return out
}
