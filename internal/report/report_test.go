package report

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"inventario-backend/internal/ledger"
	"inventario-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var rows = []ledger.ProductWithStock{
	{Product: models.Product{ID: "HEM-001", Name: "Diluyente isotónico", Subwarehouse: "REACTIVOS"}, Stock: 12},
	{Product: models.Product{ID: "HEM-030", Name: "Tubos EDTA", Subwarehouse: "CONSUMIBLES"}, Stock: 0},
}

type fixedSource []ledger.ProductWithStock

func (f fixedSource) ProductsWithStock() []ledger.ProductWithStock { return f }

func TestStockXLSX(t *testing.T) {
	data, err := StockXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"ITEM", "PRODUCTO", "SUBALMACEN", "STOCK"}, got[0])
	assert.Equal(t, []string{"HEM-001", "Diluyente isotónico", "REACTIVOS", "12"}, got[1])
	assert.Equal(t, "0", got[2][3])
}

func TestStockPDF(t *testing.T) {
	data, err := StockPDF("Stock - HEMATOLOGIA", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestStockXLSXHandlerAppliesFilters(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	app := fiber.New()
	app.Get("/stock.xlsx", StockXLSXHandler(fixedSource(rows), time.UTC, log))

	resp, err := app.Test(httptest.NewRequest("GET", "/stock.xlsx?levels=0", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "HEM-030", got[1][0])

	resp, err = app.Test(httptest.NewRequest("GET", "/stock.xlsx?levels=x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
