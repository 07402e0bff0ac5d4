package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iudanet/posync/internal/config"
	"github.com/iudanet/posync/internal/server/handlers"
	"github.com/iudanet/posync/internal/server/hub"
	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/server/middleware"
	"github.com/iudanet/posync/internal/server/service"
	"github.com/iudanet/posync/internal/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// routerDeps зависимости HTTP-слоя
type routerDeps struct {
	logger    *slog.Logger
	sync      handlers.SyncProcessor
	stream    handlers.StreamServer
	tokens    middleware.TokenValidator
	devices   middleware.DeviceRegistry
	db        handlers.Pinger
	rateLimit int
}

// newRouter собирает маршруты API
func newRouter(d routerDeps) http.Handler {
	syncHandler := handlers.NewSyncHandler(d.logger, d.sync)
	healthHandler := handlers.NewHealthHandler(d.logger, d.db)
	wsHandler := handlers.NewWebsocketHandler(d.logger, d.stream)

	r := mux.NewRouter()
	r.Use(middleware.RecoveryMiddleware(d.logger))
	r.Use(middleware.LoggingWithSkip(d.logger, []string{"/api/v1/health"}))
	if d.rateLimit > 0 {
		r.Use(middleware.RateLimitByPathMiddleware(
			[]middleware.PathRateLimit{
				// push тяжелее остальных запросов
				{Path: "/api/v1/sync/push", Rate: max(d.rateLimit/4, 1), Window: time.Minute},
			},
			d.rateLimit, time.Minute, d.logger))
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	protected := apiRouter.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(d.logger, d.tokens, d.devices))
	protected.HandleFunc("/sync/push", syncHandler.Push).Methods(http.MethodPost)
	protected.HandleFunc("/sync/pull", syncHandler.Pull).Methods(http.MethodGet)
	protected.HandleFunc("/sync/entities/{type}/{id}", syncHandler.EntityHistory).Methods(http.MethodGet)
	protected.HandleFunc("/conflicts/{id}/resolve", syncHandler.ResolveConflict).Methods(http.MethodPost)
	protected.HandleFunc("/ws", wsHandler.Connect).Methods(http.MethodGet)

	return r
}

func openStorage(ctx context.Context, cfg *config.Config) (*sqlite.Storage, error) {
	return sqlite.New(ctx, cfg.Server.DBPath,
		sqlite.WithBusyTimeout(cfg.Server.DBBusyTimeout),
		sqlite.WithMaxConns(cfg.Server.DBMaxConns))
}

// serve запускает HTTP сервер и останавливает его при отмене ctx
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Server.JWTSecret == "" {
		return errors.New("jwt secret is required (POSYNC_JWT_SECRET)")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	notifications := hub.New(logger, hub.DefaultConfig())
	defer notifications.Close()

	syncService := service.NewSyncService(store, store, notifications, logger, service.Config{
		MaxBatch: cfg.Server.MaxBatchEvents,
	})

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: newRouter(routerDeps{
			logger:    logger,
			sync:      syncService,
			stream:    notifications,
			tokens:    jwt.NewService(cfg.Server.JWTSecret, cfg.Server.TokenTTL),
			devices:   store,
			db:        store.DB(),
			rateLimit: cfg.Server.RateLimit,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.Server.Addr, "db", cfg.Server.DBPath)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// websocket-соединения не отслеживаются Shutdown
	notifications.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
