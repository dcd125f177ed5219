// Package httpserver arma la aplicación Fiber: middlewares, manejo de errores y rutas.
package httpserver

import (
	"errors"
	"time"

	"inventario-backend/internal/audit"
	"inventario-backend/internal/auth"
	"inventario-backend/internal/config"
	"inventario-backend/internal/dashboard"
	"inventario-backend/internal/inventory"
	"inventario-backend/internal/logging"
	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"
	"inventario-backend/internal/report"
	"inventario-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

// Deps: todo lo que las rutas necesitan
type Deps struct {
	Config  *config.Config
	Log     *logrus.Logger
	Store   store.Store
	State   *dashboard.State
	Hub     *realtime.Hub
	Service *inventory.Service
	Users   auth.UserRepository
	Audit   audit.Recorder
}

// importOverhead: margen del cuerpo multipart sobre el tamaño del archivo
const importOverhead = 64 * 1024

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(d.Log),
		BodyLimit:    d.Config.UploadMaxBytes + importOverhead,
		ReadTimeout:  30 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logging.RequestLogger(d.Log))

	registerRoutes(app, d)
	return app
}

// ErrorHandler: Rejection -> {error, title}; *fiber.Error -> {error}; resto -> 500
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var rej *inventory.Rejection
		if errors.As(err, &rej) {
			return c.Status(rej.Status).JSON(fiber.Map{
				"error": rej.Message,
				"title": rej.Title,
			})
		}

		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}

		log.WithError(err).WithField("path", c.Path()).Error("Unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error inesperado del servidor",
		})
	}
}

func registerRoutes(app *fiber.App, d Deps) {
	cfg := d.Config
	loc := cfg.Location()

	api := app.Group("/api")

	// Públicas
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.Users, d.Log))
	api.Post("/auth/login", auth.LoginHandler(cfg.JWTSecret, d.Users))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(d.Users))

	// Vistas
	protected.Get("/warehouse", inventory.WarehouseHandler(d.State))
	protected.Get("/catalog", inventory.ListCatalogHandler(d.State))
	protected.Get("/stock", inventory.StockHandler(d.State))
	protected.Get("/entries", inventory.EntriesHandler(d.State, loc))
	protected.Get("/exits", inventory.ExitsHandler(d.State, loc))
	protected.Get("/marked", inventory.MarkedHandler(d.State))

	// Movimientos
	protected.Post("/transactions", inventory.CreateTransactionHandler(d.Service, d.State))
	protected.Post("/transactions/import", inventory.ImportTransactionsHandler(d.Service, cfg.UploadMaxBytes))
	protected.Delete("/transactions/:id", inventory.DeleteTransactionHandler(d.Service))
	protected.Post("/transactions/:id/mark", inventory.ToggleMarkHandler(d.Service))

	// Reportes
	protected.Get("/reports/stock.xlsx", report.StockXLSXHandler(d.State, loc, d.Log))
	protected.Get("/reports/stock.pdf", report.StockPDFHandler(d.State, loc, d.Log))

	// Tiempo real
	protected.Get("/live/:collection", inventory.LiveHandler(d.Store, d.Hub, d.Log))

	protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.Audit, d.Log))

	// Admin
	adminOnly := auth.RequireRole(models.RoleAdmin)
	protected.Post("/products", adminOnly, inventory.CreateProductHandler(d.Service))
	protected.Put("/products/:id", adminOnly, inventory.UpdateProductHandler(d.Service))
	protected.Delete("/products/:id", adminOnly, inventory.DeleteProductHandler(d.Service))
	protected.Post("/users", adminOnly, auth.CreateUserHandler(d.Users))
}
