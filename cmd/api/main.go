package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bloodhub/internal/auth"
	"github.com/geocoder89/bloodhub/internal/config"
	"github.com/geocoder89/bloodhub/internal/db"
	httpx "github.com/geocoder89/bloodhub/internal/http"
	"github.com/geocoder89/bloodhub/internal/http/handlers"
	"github.com/geocoder89/bloodhub/internal/notifications"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/geocoder89/bloodhub/internal/redisclient"
	"github.com/geocoder89/bloodhub/internal/repo/filestore"
	"github.com/geocoder89/bloodhub/internal/repo/postgres"
	"github.com/geocoder89/bloodhub/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "bloodhub", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Env:            cfg.Env,
		Tokens:         auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
		UploadMaxBytes: cfg.UploadMaxBytes,
		Prom:           prom,
		Gatherer:       reg,
		CORSOrigins:    cfg.CORSOrigins,
		RegisterRoles:  cfg.RegisterRoles,
		ListCacheTTL:   cfg.ListCacheTTL(),
	}

	closeStore, err := openStore(ctx, cfg, prom, &deps)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := openPhotoStore(cfg, &deps); err != nil {
		return err
	}

	closeNotifier := openNotifier(cfg, log, prom, &deps)
	defer closeNotifier()

	sctx, cancel := config.WithTimeout(5 * time.Second)
	created, err := db.EnsureAdminUser(sctx, deps.Users, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "uploads", cfg.UploadDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-stop:
	}
	log.Info("server shutting down")

	ctxTimeOut := 10 * time.Second
	shutdownCtx, cancelShutdown := config.WithTimeout(ctxTimeOut)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return nil
	}

	log.Info("shutdown complete")
	return nil
}

// openStore fills the repositories for the configured driver and returns a
// close func.
func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, deps *httpx.Deps) (func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.EnsureSchema(sctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Requests = postgres.NewRequestsRepo(pool, prom)
		deps.Posts = postgres.NewPostsRepo(pool, prom)
		deps.Stats = postgres.NewStatsRepo(pool, prom)
		deps.Checks = append(deps.Checks, handlers.Check{Name: "postgres", Ping: pool.Ping})

		return pool.Close, nil

	default:
		fdb, err := filestore.Open(cfg.DataFile)
		if err != nil {
			return nil, err
		}

		deps.Users = filestore.NewUsersRepo(fdb, prom)
		deps.Requests = filestore.NewRequestsRepo(fdb, prom)
		deps.Posts = filestore.NewPostsRepo(fdb, prom)
		deps.Stats = filestore.NewStatsRepo(fdb, prom)
		deps.Checks = append(deps.Checks, handlers.Check{Name: "filestore", Ping: fdb.Ping})

		return func() {}, nil
	}
}

func openPhotoStore(cfg config.Config, deps *httpx.Deps) error {
	switch cfg.UploadDriver {
	case config.UploadMinio:
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, "")
		if err != nil {
			return err
		}
		deps.Photos = store

	default:
		store, err := storage.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return err
		}
		deps.Photos = store
		deps.UploadDir = store.Dir()
	}

	return nil
}

// openNotifier always logs new requests and also publishes them on redis when
// REDIS_ADDR is set.
func openNotifier(cfg config.Config, log *slog.Logger, prom *observability.Prom, deps *httpx.Deps) func() {
	logNotifier := notifications.NewLogNotifier(log)

	if cfg.RedisAddr == "" {
		deps.Notifier = logNotifier
		return func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	published := notifications.NewMeteredNotifier(
		notifications.NewProtectedNotifier(
			notifications.NewRedisNotifier(rc, cfg.RedisChannel),
			notifications.ProtectedNotifierConfig{Timeout: 2 * time.Second},
		),
		prom.ObserveNotification,
	)

	deps.Notifier = notifications.Multi{logNotifier, published}
	deps.Checks = append(deps.Checks, handlers.Check{Name: "redis", Ping: rc.Ping})

	return func() { _ = rc.Close() }
}
