// Package report genera las exportaciones del listado de stock (Excel y PDF).
package report

import (
	"bytes"
	"fmt"
	"time"

	"inventario-backend/internal/ledger"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const stockSheet = "Stock"

var stockHeaders = []string{"ITEM", "PRODUCTO", "SUBALMACEN", "STOCK"}

// StockXLSX: hoja "Stock" con una fila por producto
func StockXLSX(rows []ledger.ProductWithStock) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), stockSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(stockSheet, "A1", &stockHeaders); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(stockSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{r.ID, r.Name, r.Subwarehouse, r.Stock}
		if err := f.SetSheetRow(stockSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(stockSheet, "A", "A", 14)
	_ = f.SetColWidth(stockSheet, "B", "B", 42)
	_ = f.SetColWidth(stockSheet, "C", "C", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("no se pudo generar el Excel: %w", err)
	}
	return buf.Bytes(), nil
}

// StockPDF: tabla A4 con título y fecha de generación
func StockPDF(title string, generated time.Time, rows []ledger.ProductWithStock) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252: acentos y ñ
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)

	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Generado: %s", generated.Format("2006-01-02 15:04"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Productos: %d", len(rows))), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{30, 95, 40, 25}

	pdf.SetFont("Arial", "B", 11)
	for i, h := range stockHeaders {
		ln := 0
		if i == len(stockHeaders)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 8, h, "1", ln, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		pdf.CellFormat(widths[0], 7, tr(r.ID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(r.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(r.Subwarehouse), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", r.Stock), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("no se pudo generar el PDF: %w", err)
	}
	return buf.Bytes(), nil
}
