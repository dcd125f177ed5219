package inventory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"inventario-backend/internal/models"
	"inventario-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const liveKeepAlive = 15 * time.Second

// CollectionReader: lectura completa de cada colección (store.Store)
type CollectionReader interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListMarked(ctx context.Context) ([]string, error)
}

type Subscriber interface {
	Subscribe(collection string) (<-chan realtime.Change, func())
}

func knownCollection(name string) bool {
	for _, c := range realtime.Collections {
		if c == name {
			return true
		}
	}
	return false
}

func readCollection(ctx context.Context, src CollectionReader, collection string) (any, error) {
	switch collection {
	case realtime.Products:
		products, err := src.ListProducts(ctx)
		if products == nil {
			products = []models.Product{}
		}
		return products, err
	case realtime.Transactions:
		txs, err := src.ListTransactions(ctx)
		if txs == nil {
			txs = []models.Transaction{}
		}
		return txs, err
	case realtime.MarkedRows:
		ids, err := src.ListMarked(ctx)
		if ids == nil {
			ids = []string{}
		}
		return ids, err
	}
	return nil, fmt.Errorf("colección desconocida %q", collection)
}

// writeEvent: un evento SSE con la colección completa
func writeEvent(w io.Writer, collection string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", collection, data)
	return err
}

// GET /api/live/:collection
// Envía la colección completa al conectar y cada vez que cambia
func LiveHandler(src CollectionReader, hub Subscriber, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collection := c.Params("collection")
		if !knownCollection(collection) {
			return fiber.NewError(fiber.StatusNotFound, "Colección desconocida")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		ch, cancel := hub.Subscribe(collection)
		// el stream sigue vivo después de que el handler retorna: no se usa el contexto de la petición
		ctx := context.Background()
		entry := log.WithFields(logrus.Fields{"collection": collection, "ip": c.IP()})

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()

			push := func() error {
				payload, err := readCollection(ctx, src, collection)
				if err != nil {
					// se conserva la conexión; el cliente mantiene su último estado
					entry.WithError(err).Error("lectura para el stream falló")
					return nil
				}
				if err := writeEvent(w, collection, payload); err != nil {
					return err
				}
				return w.Flush()
			}

			if err := push(); err != nil {
				return
			}

			ticker := time.NewTicker(liveKeepAlive)
			defer ticker.Stop()

			for {
				select {
				case _, ok := <-ch:
					if !ok {
						return
					}
					if err := push(); err != nil {
						entry.Debug("cliente desconectado")
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						entry.Debug("cliente desconectado")
						return
					}
				}
			}
		}))

		return nil
	}
}
