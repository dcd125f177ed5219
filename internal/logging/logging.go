package logging

import (
	"errors"
	"time"

	"inventario-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// New: logger de la aplicación según LOG_FORMAT y LOG_LEVEL
func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// statusError: errores de dominio que ya conocen su código HTTP
type statusError interface {
	StatusCode() int
}

// RequestLogger: registra cada petición HTTP con su estado y latencia
func RequestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			var fe *fiber.Error
			var se statusError
			if errors.As(chainErr, &fe) {
				status = fe.Code
			} else if errors.As(chainErr, &se) {
				status = se.StatusCode()
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status_code": status,
			"latency":     time.Since(start),
			"client_ip":   c.IP(),
		})
		if chainErr != nil {
			entry = entry.WithField("error", chainErr.Error())
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request completed with server error")
		case status >= 400:
			entry.Warn("HTTP request completed with client error")
		default:
			entry.Info("HTTP request completed successfully")
		}

		return chainErr
	}
}
