package inventory

import (
	"inventario-backend/internal/filter"
	"inventario-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Subwarehouse string `json:"subwarehouse"`
}

type CreateProductRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Subwarehouse string `json:"subwarehouse"`
}

type UpdateProductRequest struct {
	Name         string `json:"name"`
	Subwarehouse string `json:"subwarehouse"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Subwarehouse: p.Subwarehouse}
}

// fail: errores del servicio como Rejection (código, título y mensaje)
func fail(err error) error {
	if rej := AsRejection(err); rej != nil {
		return rej
	}
	return err
}

// GET /api/catalog?search=
func ListCatalogHandler(view View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products := filter.Catalog(view.Products(), c.Query("search"))

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/products (solo admin)
func CreateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		p, err := svc.AddProduct(c.UserContext(), models.Product{
			ID:           body.ID,
			Name:         body.Name,
			Subwarehouse: body.Subwarehouse,
		})
		if err != nil {
			return fail(err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"title":   TitleSuccess,
			"message": MsgProductAdded,
			"product": toProductResponse(p),
		})
	}
}

// PUT /api/products/:id
func UpdateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		p, err := svc.UpdateProduct(c.UserContext(), id, body.Name, body.Subwarehouse)
		if err != nil {
			return fail(err)
		}

		return c.JSON(fiber.Map{
			"title":   TitleSuccess,
			"message": MsgProductUpdated,
			"product": toProductResponse(p),
		})
	}
}

// DELETE /api/products/:id?confirm=true
// Sin confirm responde 409 con el texto de confirmación (si el producto se puede borrar)
func DeleteProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		if c.Query("confirm") != "true" {
			if err := svc.CheckProductDeletable(c.UserContext(), id); err != nil {
				return fail(err)
			}
			return &Rejection{Status: fiber.StatusConflict, Title: TitleConfirmDelete, Message: ConfirmDeleteProduct}
		}

		if err := svc.DeleteProduct(c.UserContext(), id); err != nil {
			return fail(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
