package inventory

import (
	"time"

	"inventario-backend/internal/catalog"
	"inventario-backend/internal/filter"
	"inventario-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StockRowResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Subwarehouse string `json:"subwarehouse"`
	Stock        int    `json:"stock"`
}

// GET /api/warehouse
func WarehouseHandler(view View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":          catalog.WarehouseName,
			"subwarehouses": filter.Subwarehouses(view.Products()),
		})
	}
}

// StockQueryFromRequest: ?search=&subwarehouse=&levels=0,1,5
func StockQueryFromRequest(c *fiber.Ctx) (filter.StockQuery, error) {
	levels, err := filter.ParseStockLevels(c.Query("levels"))
	if err != nil {
		return filter.StockQuery{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return filter.StockQuery{
		Search:       c.Query("search"),
		Subwarehouse: c.Query("subwarehouse", filter.AllSubwarehouses),
		Levels:       levels,
	}, nil
}

// GET /api/stock
func StockHandler(view View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := StockQueryFromRequest(c)
		if err != nil {
			return err
		}

		rows := filter.Stock(view.ProductsWithStock(), q)
		res := make([]StockRowResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, StockRowResponse{ID: r.ID, Name: r.Name, Subwarehouse: r.Subwarehouse, Stock: r.Stock})
		}
		return c.JSON(res)
	}
}

func dateRangeFromRequest(c *fiber.Ctx, loc *time.Location) (filter.DateRange, error) {
	r, err := filter.ParseDateRange(c.Query("start"), c.Query("end"), loc)
	if err != nil {
		return filter.DateRange{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return r, nil
}

func transactionRows(view View, txs []models.Transaction, products map[string]models.Product) []TransactionResponse {
	res := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		res = append(res, toTransactionResponse(t, products[t.ProductID].Name, view.IsMarked(t.ID)))
	}
	return res
}

// GET /api/entries?search=&start=YYYY-MM-DD&end=YYYY-MM-DD
func EntriesHandler(view View, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := dateRangeFromRequest(c, loc)
		if err != nil {
			return err
		}

		products := view.ProductMap()
		entries := filter.Entries(view.Transactions(), products, filter.EntryQuery{
			Search: c.Query("search"),
			Range:  r,
		})
		return c.JSON(transactionRows(view, entries, products))
	}
}

// GET /api/exits?search=&subwarehouse=&start=&end=
func ExitsHandler(view View, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := dateRangeFromRequest(c, loc)
		if err != nil {
			return err
		}

		products := view.ProductMap()
		exits := filter.Exits(view.Transactions(), products, filter.ExitQuery{
			Search:       c.Query("search"),
			Subwarehouse: c.Query("subwarehouse", filter.AllSubwarehouses),
			Range:        r,
		})
		return c.JSON(transactionRows(view, exits, products))
	}
}

// GET /api/marked
func MarkedHandler(view View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(view.Marked())
	}
}
