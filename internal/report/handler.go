package report

import (
	"fmt"
	"time"

	"inventario-backend/internal/catalog"
	"inventario-backend/internal/filter"
	"inventario-backend/internal/inventory"
	"inventario-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StockSource: productos con stock derivado (dashboard.State)
type StockSource interface {
	ProductsWithStock() []ledger.ProductWithStock
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func filteredStock(c *fiber.Ctx, src StockSource) ([]ledger.ProductWithStock, error) {
	q, err := inventory.StockQueryFromRequest(c)
	if err != nil {
		return nil, err
	}
	return filter.Stock(src.ProductsWithStock(), q), nil
}

func attachment(c *fiber.Ctx, name string, generated time.Time, ext string) {
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_%s.%s"`, name, generated.Format("20060102_1504"), ext))
}

// GET /api/reports/stock.xlsx (mismos filtros que /api/stock)
func StockXLSXHandler(src StockSource, loc *time.Location, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := filteredStock(c, src)
		if err != nil {
			return err
		}

		data, err := StockXLSX(rows)
		if err != nil {
			log.WithError(err).Error("exportación xlsx falló")
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el reporte.")
		}

		attachment(c, "stock", time.Now().In(loc), "xlsx")
		c.Set(fiber.HeaderContentType, xlsxMIME)
		return c.Send(data)
	}
}

// GET /api/reports/stock.pdf
func StockPDFHandler(src StockSource, loc *time.Location, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := filteredStock(c, src)
		if err != nil {
			return err
		}

		generated := time.Now().In(loc)
		data, err := StockPDF("Stock - "+catalog.WarehouseName, generated, rows)
		if err != nil {
			log.WithError(err).Error("exportación pdf falló")
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el reporte.")
		}

		attachment(c, "stock", generated, "pdf")
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Send(data)
	}
}
