package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/client/archive"
	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/cache"
	"github.com/iudanet/posync/internal/client/cli"
	"github.com/iudanet/posync/internal/client/conflict"
	"github.com/iudanet/posync/internal/client/data"
	"github.com/iudanet/posync/internal/client/iocli"
	"github.com/iudanet/posync/internal/client/metrics"
	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/projection"
	"github.com/iudanet/posync/internal/client/resilience"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/posync/internal/client/sync"
	"github.com/iudanet/posync/internal/config"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
)

// app собирает компоненты клиента
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *boltdb.Storage
	redis     *cache.RedisTier
	cache     *cache.Cache
	metrics   *metrics.Sync
	authSvc   *auth.Service
	scheduler *clientsync.Scheduler
	cli       *cli.Cli
	session   *storage.AuthData
}

func newApp(ctx context.Context, cfg *config.Config, io iocli.IO, logger *slog.Logger) (*app, error) {
	store, err := boltdb.New(ctx, cfg.Client.DBPath, boltdb.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
		authSvc: auth.NewService(store, logger),
	}

	session, err := a.authSvc.Session(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
	case err != nil:
		_ = a.Close()
		return nil, fmt.Errorf("failed to read session: %w", err)
	default:
		if cfg.Client.StoreID != "" && cfg.Client.StoreID != session.StoreID {
			_ = a.Close()
			return nil, fmt.Errorf("device token belongs to store %s, configured store is %s", session.StoreID, cfg.Client.StoreID)
		}
		a.session = session
	}

	if err := a.wire(ctx, io); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, io iocli.IO) error {
	cfg := a.cfg

	var durable storage.CacheStorage = a.store
	if cfg.Cache.Backend == config.CacheBackendRedis {
		a.redis = cache.NewRedisTier(cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.RedisPrefix)
		if err := a.redis.Ping(ctx); err != nil {
			// кэш не источник истины: работаем с памятью и bolt
			a.logger.Warn("Redis cache unavailable, using local durable tier", "addr", cfg.Cache.RedisAddr, "error", err)
			_ = a.redis.Close()
			a.redis = nil
		} else {
			durable = a.redis
		}
	}
	a.cache = cache.New(cache.Config{
		MemoryTTL:     cfg.Cache.MemoryTTL,
		DurableTTL:    cfg.Cache.DurableTTL,
		SweepInterval: cfg.Cache.SweepInterval,
		MaxEntries:    cfg.Cache.MaxEntries,
	}, durable, a.logger)

	engine := projection.New(a.store, a.cache, a.logger)
	outboxCfg := outbox.Config{
		BackoffBase:       cfg.Sync.BackoffBase,
		BackoffMax:        cfg.Sync.BackoffMax,
		BackoffMultiplier: cfg.Sync.BackoffMultiplier,
	}

	deps := cli.Deps{
		IO:        io,
		Auth:      a.authSvc,
		Cursor:    a.store,
		Retention: cfg.Archive.Retention,
	}

	if a.session == nil {
		// без устройства доступна только статистика очереди
		deps.Outbox = outbox.New(a.store, a.store, nil, "", outboxCfg, a.logger)
		a.cli = cli.New(deps)
		return nil
	}

	clock, err := crdt.NewClockManager(ctx, a.session.DeviceID, a.store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load vector clock: %w", err)
	}

	ob := outbox.New(a.store, a.store, clock, a.session.StoreID, outboxCfg, a.logger)
	if cfg.Archive.Enabled {
		archiver, err := a.newArchiver(ctx)
		if err != nil {
			return err
		}
		ob.WithArchiver(archiver)
	}

	breakers := resilience.NewGroup(resilience.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		Timeout:          cfg.Breaker.Timeout,
	}, resilience.WithStateChange(a.metrics.BreakerObserver(a.logger)))

	client := api.NewClient(cfg.Client.ServerURL)

	a.scheduler = clientsync.New(client, a.authSvc, ob, clock, engine, a.store, breakers, a.metrics,
		clientsync.Config{
			ClientVersion: "posync/" + Version,
			Interval:      cfg.Sync.Interval,
			BatchSize:     cfg.Sync.BatchSize,
			PullLimit:     cfg.Sync.PullLimit,
		}, a.logger)

	conflicts := conflict.New(a.store, ob, engine, conflict.NewServerRemote(client, a.authSvc, breakers), a.logger)
	conflicts.RegisterPatchMergers()
	conflicts.OnResolved(func(c *models.LocalConflict) {
		if c.Resolution != models.ResolutionTakeTheirs {
			a.scheduler.Trigger(clientsync.ReasonManual)
		}
	})

	deps.Data = data.NewService(ob, engine, a.logger)
	deps.Outbox = ob
	deps.Conflicts = conflicts
	deps.Sync = a.scheduler
	a.cli = cli.New(deps)
	return nil
}

func (a *app) newArchiver(ctx context.Context) (*archive.Archiver, error) {
	cfg := a.cfg.Archive

	objects, err := archive.NewS3Store(ctx, archive.S3Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Prefix:          cfg.Prefix,
		UsePathStyle:    cfg.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive store: %w", err)
	}

	var key []byte
	if cfg.Passphrase != "" {
		key, err = crypto.DeriveArchiveKey(cfg.Passphrase, a.session.StoreID)
		if err != nil {
			return nil, fmt.Errorf("failed to derive archive key: %w", err)
		}
	}

	return archive.New(objects, a.session.StoreID, a.session.DeviceID, key, a.logger)
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	if _, ok := sessionRequired[command]; ok && a.session == nil {
		return fmt.Errorf("%w: run 'posync login <token>' first", auth.ErrNotLoggedIn)
	}
	if command == "daemon" {
		return a.runDaemon(ctx)
	}
	return a.cli.Run(ctx, command, args)
}

// sessionRequired команды, которым нужно устройство; login, logout и status работают без него
var sessionRequired = map[string]struct{}{
	"daemon":       {},
	"record":       {},
	"product":      {},
	"customer":     {},
	"events":       {},
	"sync":         {},
	"conflicts":    {},
	"resolve":      {},
	"reset-failed": {},
	"archive":      {},
}

// runDaemon синхронизирует в фоне до SIGINT/SIGTERM
func (a *app) runDaemon(ctx context.Context) error {
	monitor, err := clientsync.NewMonitor(a.cfg.Client.ServerURL, a.authSvc, a.scheduler,
		clientsync.DefaultMonitorConfig(), a.logger)
	if err != nil {
		return err
	}

	var srv *http.Server
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv = &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("Metrics server started", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	go a.cache.Run(ctx)

	a.scheduler.Start(ctx)
	a.logger.Info("Daemon started",
		"store_id", a.session.StoreID,
		"device_id", a.session.DeviceID,
		"server", a.cfg.Client.ServerURL)

	err = monitor.Run(ctx)
	a.scheduler.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.logger.Error("Metrics server shutdown failed", "error", serr)
		}
	}

	a.logger.Info("Daemon stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close освобождает хранилища
func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
