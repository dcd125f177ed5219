package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"inventario-backend/internal/importer"

	"github.com/gofiber/fiber/v2"
)

// ImportRowsRequest: filas ya leídas por el cliente; las celdas pueden venir como texto, número o null
type ImportRowsRequest struct {
	Rows [][]any `json:"rows"`
}

type ImportResponse struct {
	importer.Result
	Intro string   `json:"intro,omitempty"`
	Lines []string `json:"lines"`
}

// cellString: representación de una celda JSON como la vería la planilla
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// POST /api/transactions/import
// multipart "file" (.xlsx, .csv) o JSON {"rows": [["ITEM","CANTIDAD"], ...]}
func ImportTransactionsHandler(svc *Service, maxBytes int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows [][]string

		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			fileHeader, err := c.FormFile("file")
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "No se pudo leer el archivo: "+err.Error())
			}
			if maxBytes > 0 && fileHeader.Size > int64(maxBytes) {
				return fiber.NewError(fiber.StatusRequestEntityTooLarge, "El archivo supera el tamaño máximo permitido")
			}

			file, err := fileHeader.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo abrir el archivo: "+err.Error())
			}
			defer file.Close()

			rows, err = importer.ReadFile(fileHeader.Filename, file)
			if err != nil {
				if errors.Is(err, importer.ErrUnsupportedFormat) {
					return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
				}
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		} else {
			var body ImportRowsRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de solicitud inválido")
			}
			rows = make([][]string, 0, len(body.Rows))
			for _, raw := range body.Rows {
				row := make([]string, 0, len(raw))
				for _, cell := range raw {
					row = append(row, cellString(cell))
				}
				rows = append(rows, row)
			}
		}

		res := svc.ImportRows(c.UserContext(), rows)

		resp := ImportResponse{Result: res, Lines: res.Lines()}
		if len(res.Errors) > 0 {
			resp.Intro = importer.ErrorsIntro
		}

		status := fiber.StatusOK
		switch {
		case commitFailed(res):
			status = fiber.StatusInternalServerError
		case res.Imported == 0 && len(res.Errors) > 0:
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(resp)
	}
}

func commitFailed(res importer.Result) bool {
	for _, e := range res.Errors {
		if e.Row == 0 && e.Reason == importer.ReasonCommitFailed {
			return true
		}
	}
	return false
}
