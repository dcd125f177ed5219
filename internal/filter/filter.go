// Package filter implementa las vistas filtradas del tablero: catálogo, stock, entradas y salidas.
// Todo se evalúa en memoria sobre las colecciones completas.
package filter

import (
	"sort"
	"strings"

	"inventario-backend/internal/ledger"
	"inventario-backend/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllSubwarehouses: valor del selector que desactiva el filtro por subalmacén
const AllSubwarehouses = "all"

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func subwarehouseMatches(selected, value string) bool {
	return selected == "" || selected == AllSubwarehouses || selected == value
}

func newCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase)
}

// Subwarehouses: "all" seguido de los subalmacenes del catálogo, sin repetir y ordenados
func Subwarehouses(products []models.Product) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, p := range products {
		if seen[p.Subwarehouse] {
			continue
		}
		seen[p.Subwarehouse] = true
		names = append(names, p.Subwarehouse)
	}
	sort.Strings(names)
	return append([]string{AllSubwarehouses}, names...)
}

// Catalog: búsqueda en nombre, código y subalmacén; ordenado por nombre
func Catalog(products []models.Product, search string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matches(search, p.Name, p.ID, p.Subwarehouse) {
			out = append(out, p)
		}
	}

	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

type StockQuery struct {
	Search       string
	Subwarehouse string
	Levels       StockLevels
}

// Stock: búsqueda + subalmacén + niveles de stock; ordenado por nombre
func Stock(items []ledger.ProductWithStock, q StockQuery) []ledger.ProductWithStock {
	out := make([]ledger.ProductWithStock, 0, len(items))
	for _, it := range items {
		if !matches(q.Search, it.Name, it.ID, it.Subwarehouse) {
			continue
		}
		if !subwarehouseMatches(q.Subwarehouse, it.Subwarehouse) {
			continue
		}
		if !q.Levels.Match(it.Stock) {
			continue
		}
		out = append(out, it)
	}

	col := newCollator()
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

type EntryQuery struct {
	Search string
	Range  DateRange
}

// Entries: transacciones ENTRY de productos conocidos, en el orden recibido (fecha descendente)
func Entries(txs []models.Transaction, products map[string]models.Product, q EntryQuery) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range txs {
		if t.Type != models.TransactionEntry {
			continue
		}
		p, ok := products[t.ProductID]
		if !ok {
			continue
		}
		if !matches(q.Search, p.Name, p.ID) {
			continue
		}
		if !q.Range.Contains(t.Date) {
			continue
		}
		out = append(out, t)
	}
	return out
}

type ExitQuery struct {
	Search       string
	Subwarehouse string
	Range        DateRange
}

// Exits: como Entries, además busca en lote/subalmacén y filtra por el subalmacén de la transacción
func Exits(txs []models.Transaction, products map[string]models.Product, q ExitQuery) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range txs {
		if t.Type != models.TransactionExit {
			continue
		}
		p, ok := products[t.ProductID]
		if !ok {
			continue
		}
		if !matches(q.Search, p.Name, p.ID, t.Batch, t.Subwarehouse) {
			continue
		}
		if !subwarehouseMatches(q.Subwarehouse, t.Subwarehouse) {
			continue
		}
		if !q.Range.Contains(t.Date) {
			continue
		}
		out = append(out, t)
	}
	return out
}
