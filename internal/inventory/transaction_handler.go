package inventory

import (
	"time"

	"inventario-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TransactionResponse struct {
	ID           string                 `json:"id"`
	ProductID    string                 `json:"product_id"`
	ProductName  string                 `json:"product_name"`
	Quantity     int                    `json:"quantity"`
	Type         models.TransactionType `json:"type"`
	Date         string                 `json:"date"`
	Batch        string                 `json:"batch,omitempty"`
	Subwarehouse string                 `json:"subwarehouse,omitempty"`
	Marked       bool                   `json:"marked"`
}

func toTransactionResponse(t models.Transaction, productName string, marked bool) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		ProductID:    t.ProductID,
		ProductName:  productName,
		Quantity:     t.Quantity,
		Type:         t.Type,
		Date:         t.Date.Format(time.RFC3339),
		Batch:        t.Batch,
		Subwarehouse: t.Subwarehouse,
		Marked:       marked,
	}
}

// POST /api/transactions
func CreateTransactionHandler(svc *Service, view View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NewTransaction
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de solicitud inválido")
		}

		tx, err := svc.RecordTransaction(c.UserContext(), body)
		if err != nil {
			return fail(err)
		}

		p, _ := view.Product(tx.ProductID)
		return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx, p.Name, false))
	}
}

// DELETE /api/transactions/:id?confirm=true
func DeleteTransactionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if c.Query("confirm") != "true" {
			return &Rejection{Status: fiber.StatusConflict, Title: TitleConfirmDelete, Message: ConfirmDeleteTransaction}
		}

		if err := svc.DeleteTransaction(c.UserContext(), id); err != nil {
			return fail(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/transactions/:id/mark
func ToggleMarkHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		marked, err := svc.ToggleMark(c.UserContext(), id)
		if err != nil {
			return fail(err)
		}
		return c.JSON(fiber.Map{
			"id":     id,
			"marked": marked,
		})
	}
}
