// @title Pet Care API
// @version 1.0
// @description Usuarios, mascotas y vacunas con control de acceso por rol (USER, VET, ADMIN).
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-care-api/internal/adapters/revocation"
	pg "pet-care-api/internal/adapters/storage/postgres"
	"pet-care-api/internal/platform/config"
	"pet-care-api/internal/platform/logger"
	"pet-care-api/internal/platform/metrics"
	"pet-care-api/internal/router"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	for _, w := range cfg.Warnings() {
		log.Warn(w, nil)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		opened, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer opened.Close()
		if cfg.Database.AutoMigrate {
			if err := pg.Migrate(ctx, opened); err != nil {
				return err
			}
		}
		db = opened
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		client, err := revocation.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		log.Info("using redis revocation store", map[string]any{"addr": cfg.Redis.Addr})
	}

	h, err := router.NewRouter(router.Options{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Logger:  log,
		Metrics: metrics.New(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
