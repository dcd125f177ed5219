// Package importer valida las filas de una carga masiva de entradas (ITEM, CANTIDAD)
// y lee planillas xlsx/csv.
package importer

import (
	"fmt"
	"math"
	"strings"

	"inventario-backend/internal/models"
)

const (
	TitleSuccess = "Carga Exitosa"
	TitleResult  = "Resultado de la Carga de Archivo"

	ErrorsIntro = "Se encontraron los siguientes errores y no se procesaron las filas correspondientes:"

	reasonFormat   = "Formato incorrecto. Se esperan 2 columnas: ITEM, CANTIDAD."
	reasonMissing  = "Faltan valores. Se requiere ITEM y CANTIDAD en las dos primeras columnas."
	reasonQuantity = "Cantidad no válida: \"%s\"."
	reasonProduct  = "Producto con código \"%s\" no encontrado."

	// ReasonCommitFailed: error sintético (fila 0) cuando falla el guardado del lote
	ReasonCommitFailed = "Error al guardar los datos en la base de datos."

	successMessage = "%d entradas han sido registradas correctamente."
)

// RowError: fila rechazada; Row es 1-based sobre el archivo original (0 = error del lote)
type RowError struct {
	Row    int    `json:"row"`
	Data   string `json:"data"`
	Reason string `json:"reason"`
}

// Result: resumen de la carga tal como se muestra al usuario
type Result struct {
	Title    string     `json:"title"`
	Imported int        `json:"imported"`
	Message  string     `json:"message"`
	Errors   []RowError `json:"errors"`
}

// IsHeader: primera celda contiene "item" y la segunda "cantidad" (sin distinguir mayúsculas)
func IsHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	second := strings.ToLower(strings.TrimSpace(row[1]))
	return strings.Contains(first, "item") && strings.Contains(second, "cantidad")
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseLeadingInt: acepta el prefijo entero de s ("12abc" -> 12, "3.7" -> 3) dentro del rango de int
func parseLeadingInt(s string) (int, bool) {
	i, sign := 0, 1
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			sign = -1
		}
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		d := int(s[i] - '0')
		if n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
		i++
	}
	if i == start {
		return 0, false
	}
	return sign * n, true
}

// Validate: convierte filas en transacciones ENTRY (sin ID ni fecha) y acumula los errores por fila.
// La cabecera opcional se omite; las filas totalmente vacías se ignoran sin error.
func Validate(rows [][]string, products map[string]models.Product) ([]models.Transaction, []RowError) {
	startIndex := 0
	if len(rows) > 0 && IsHeader(rows[0]) {
		startIndex = 1
	}

	txs := make([]models.Transaction, 0)
	errs := make([]RowError, 0)

	for index, row := range rows[startIndex:] {
		rowNumber := index + 1 + startIndex
		if blank(row) {
			continue
		}
		data := strings.Join(row, ";")

		if len(row) < 2 {
			errs = append(errs, RowError{Row: rowNumber, Data: data, Reason: reasonFormat})
			continue
		}

		productID := strings.TrimSpace(row[0])
		quantityStr := strings.TrimSpace(row[1])
		if productID == "" || quantityStr == "" {
			errs = append(errs, RowError{Row: rowNumber, Data: data, Reason: reasonMissing})
			continue
		}

		quantity, ok := parseLeadingInt(quantityStr)
		if !ok || quantity <= 0 {
			errs = append(errs, RowError{Row: rowNumber, Data: data, Reason: fmt.Sprintf(reasonQuantity, quantityStr)})
			continue
		}

		product, found := products[productID]
		if !found {
			errs = append(errs, RowError{Row: rowNumber, Data: data, Reason: fmt.Sprintf(reasonProduct, productID)})
			continue
		}

		txs = append(txs, models.Transaction{
			ProductID:    product.ID,
			Quantity:     quantity,
			Type:         models.TransactionEntry,
			Subwarehouse: product.Subwarehouse,
		})
	}

	return txs, errs
}

// Summarize: arma el resultado visible. commitErr indica que el lote no pudo guardarse.
func Summarize(imported int, rowErrors []RowError, commitErr error) Result {
	res := Result{Errors: append([]RowError(nil), rowErrors...)}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}

	if commitErr != nil {
		res.Errors = append(res.Errors, RowError{Row: 0, Reason: ReasonCommitFailed})
	} else if imported > 0 {
		res.Imported = imported
		res.Message = fmt.Sprintf(successMessage, imported)
	}

	switch {
	case len(res.Errors) == 0 && res.Imported > 0:
		res.Title = TitleSuccess
	case len(res.Errors) > 0:
		res.Title = TitleResult
	}
	return res
}

// Lines: texto de detalle por error ("Fila N: motivo")
func (r Result) Lines() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, fmt.Sprintf("Fila %d: %s", e.Row, e.Reason))
	}
	return out
}
