package filter

import (
	"testing"
	"time"

	"inventario-backend/internal/ledger"
	"inventario-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogFixture = []models.Product{
	{ID: "H-010", Name: "tubos edta", Subwarehouse: "CONSUMIBLES"},
	{ID: "H-001", Name: "Reactivo Diluyente", Subwarehouse: "REACTIVOS"},
	{ID: "H-002", Name: "Control Normal", Subwarehouse: "CONTROLES"},
	{ID: "H-003", Name: "Ácido lisante", Subwarehouse: "REACTIVOS"},
}

func productMap() map[string]models.Product {
	m := make(map[string]models.Product)
	for _, p := range catalogFixture {
		m[p.ID] = p
	}
	return m
}

func TestSubwarehouses(t *testing.T) {
	assert.Equal(t, []string{"all", "CONSUMIBLES", "CONTROLES", "REACTIVOS"}, Subwarehouses(catalogFixture))
	assert.Equal(t, []string{"all"}, Subwarehouses(nil))
}

func TestCatalogSearchAndOrder(t *testing.T) {
	all := Catalog(catalogFixture, "")
	require.Len(t, all, 4)
	names := []string{all[0].Name, all[1].Name, all[2].Name, all[3].Name}
	assert.Equal(t, []string{"Ácido lisante", "Control Normal", "Reactivo Diluyente", "tubos edta"}, names)

	assert.Len(t, Catalog(catalogFixture, "reactiv"), 2, "matches name and subwarehouse")
	assert.Len(t, Catalog(catalogFixture, "h-00"), 3, "matches id case-insensitively")
	assert.Empty(t, Catalog(catalogFixture, "nada"))
}

func TestStockLevels(t *testing.T) {
	levels, err := ParseStockLevels("0, 1,5")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 5}, levels.Values())

	assert.True(t, levels.Match(0))
	assert.True(t, levels.Match(1))
	assert.False(t, levels.Match(2))
	assert.True(t, levels.Match(5))
	assert.True(t, levels.Match(42))
	assert.False(t, levels.Match(-1))

	assert.True(t, NewStockLevels().Match(-7), "empty selection matches everything")
	assert.False(t, NewStockLevels(2).Match(7), "only level 5 means five or more")

	_, err = ParseStockLevels("1,x")
	assert.Error(t, err)
}

func TestStockView(t *testing.T) {
	items := []ledger.ProductWithStock{
		{Product: catalogFixture[0], Stock: 0},
		{Product: catalogFixture[1], Stock: 12},
		{Product: catalogFixture[2], Stock: 1},
		{Product: catalogFixture[3], Stock: 3},
	}

	got := Stock(items, StockQuery{Subwarehouse: "REACTIVOS"})
	require.Len(t, got, 2)
	assert.Equal(t, "H-003", got[0].ID)
	assert.Equal(t, "H-001", got[1].ID)

	got = Stock(items, StockQuery{Levels: NewStockLevels(0, 5)})
	require.Len(t, got, 2)
	assert.Equal(t, "H-001", got[0].ID)
	assert.Equal(t, "H-010", got[1].ID)

	got = Stock(items, StockQuery{Search: "control", Subwarehouse: AllSubwarehouses, Levels: NewStockLevels(1)})
	require.Len(t, got, 1)
	assert.Equal(t, "H-002", got[0].ID)
}

func TestDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-03-01", "2024-03-31", time.UTC)
	require.NoError(t, err)

	assert.True(t, r.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))

	open, err := ParseDateRange("", "", time.UTC)
	require.NoError(t, err)
	assert.True(t, open.Contains(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = ParseDateRange("01/03/2024", "", time.UTC)
	assert.Error(t, err)
}

func TestEntriesAndExits(t *testing.T) {
	march := func(day int) time.Time { return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC) }
	txs := []models.Transaction{
		{ID: "t5", ProductID: "H-001", Quantity: 2, Type: models.TransactionExit, Date: march(20), Batch: "L-77", Subwarehouse: "REACTIVOS"},
		{ID: "t4", ProductID: "GHOST", Quantity: 9, Type: models.TransactionEntry, Date: march(15)},
		{ID: "t3", ProductID: "H-002", Quantity: 1, Type: models.TransactionExit, Date: march(10), Subwarehouse: "CONTROLES"},
		{ID: "t2", ProductID: "H-002", Quantity: 4, Type: models.TransactionEntry, Date: march(5)},
		{ID: "t1", ProductID: "H-001", Quantity: 8, Type: models.TransactionEntry, Date: march(1)},
	}
	pm := productMap()

	entries := Entries(txs, pm, EntryQuery{})
	require.Len(t, entries, 2, "unknown products are dropped")
	assert.Equal(t, "t2", entries[0].ID)
	assert.Equal(t, "t1", entries[1].ID)

	r, err := ParseDateRange("2024-03-04", "", time.UTC)
	require.NoError(t, err)
	entries = Entries(txs, pm, EntryQuery{Range: r})
	require.Len(t, entries, 1)
	assert.Equal(t, "t2", entries[0].ID)

	exits := Exits(txs, pm, ExitQuery{Search: "l-77"})
	require.Len(t, exits, 1, "search includes batch")
	assert.Equal(t, "t5", exits[0].ID)

	exits = Exits(txs, pm, ExitQuery{Subwarehouse: "CONTROLES"})
	require.Len(t, exits, 1)
	assert.Equal(t, "t3", exits[0].ID)

	assert.Len(t, Exits(txs, pm, ExitQuery{Subwarehouse: "all"}), 2)
}
