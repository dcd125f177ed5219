package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventario-backend/internal/audit"
	"inventario-backend/internal/auth"
	"inventario-backend/internal/catalog"
	"inventario-backend/internal/config"
	"inventario-backend/internal/dashboard"
	"inventario-backend/internal/database"
	"inventario-backend/internal/httpserver"
	"inventario-backend/internal/inventory"
	"inventario-backend/internal/logging"
	"inventario-backend/internal/realtime"
	"inventario-backend/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()

	var (
		st    store.Store
		rec   audit.Recorder
		users auth.UserRepository
	)
	if cfg.DatabaseDSN != "" {
		db, err := database.Init(cfg.DatabaseDSN, log)
		if err != nil {
			log.WithError(err).Fatal("base de datos no disponible")
		}
		st = store.NewGormStore(db, hub)
		rec = audit.NewWriter(db)
		users = auth.NewGormUserRepository(db)
	} else {
		st = store.NewMemoryStore(hub)
		rec = audit.NewMemoryRecorder()
		users = auth.NewMemoryUserRepository()
	}

	// Puente Redis: los cambios de otras instancias llegan al hub local
	if cfg.RedisAddr != "" {
		rdb, err := realtime.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis no disponible, solo difusión local")
		} else {
			defer rdb.Close()
			bridge := realtime.NewRedisBridge(rdb, cfg.RedisChannel, hub, log)
			go func() {
				if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("puente Redis detenido")
				}
			}()
		}
	}

	state := dashboard.New(st, hub, log)
	if err := state.Refresh(ctx); err != nil {
		log.WithError(err).Warn("carga inicial incompleta")
	}
	state.Start(ctx)

	svc := inventory.NewService(st, state, rec, log)

	if cfg.SeedCatalog {
		n, err := svc.SeedIfEmpty(ctx, catalog.Products())
		switch {
		case err != nil:
			log.WithError(err).Error("no se pudo sembrar el catálogo")
		case n > 0:
			log.WithField("products", n).Info("catálogo inicial sembrado")
		}
	}

	app := httpserver.New(httpserver.Deps{
		Config:  cfg,
		Log:     log,
		Store:   st,
		State:   state,
		Hub:     hub,
		Service: svc,
		Users:   users,
		Audit:   rec,
	})

	go func() {
		<-ctx.Done()
		log.Info("apagando servidor")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":      cfg.HTTPPort,
		"warehouse": catalog.WarehouseName,
	}).Info("servidor iniciado")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("servidor detenido")
	}
}
