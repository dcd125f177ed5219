package database

import (
	"fmt"

	"inventario-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init: conecta a PostgreSQL y migra las tablas del inventario
func Init(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
	}

	err = db.AutoMigrate(
		&models.Product{},
		&models.Transaction{},
		&models.MarkedRow{},
		&models.User{},
		&models.AuditLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	// Índice compuesto para la vista de entradas/salidas por tipo y fecha
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_type_date ON transactions(type, date DESC)").Error; err != nil {
		log.WithError(err).Warn("índice idx_transactions_type_date no creado")
	}

	log.Info("Conexión a la base de datos exitosa. Migración completada.")
	return db, nil
}
