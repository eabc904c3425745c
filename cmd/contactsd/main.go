package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/httpapi"
	memcontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/memory/contactrepo"
	postgres "github.com/Overland-East-Bay/contact-manager/internal/adapters/postgres"
	pgcontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/postgres/contactrepo"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/sqlite"
	sqlitecontactrepo "github.com/Overland-East-Bay/contact-manager/internal/adapters/sqlite/contactrepo"
	platformclock "github.com/Overland-East-Bay/contact-manager/internal/platform/clock"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/config"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/logging"
	contactrepoport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONTACTSD_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.Storage), zap.Error(err))
	}
	defer cleanup()

	handler := httpapi.NewRouter(httpapi.NewServer(repo), httpapi.RouterOptions{Logger: logger})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("contacts api listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.ServerConfig) (contactrepoport.Repository, func(), error) {
	clk := platformclock.NewSystemClock()

	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgcontactrepo.NewRepo(pool, clk), pool.Close, nil
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlitecontactrepo.NewRepo(db, clk), func() { _ = db.Close() }, nil
	default:
		return memcontactrepo.NewRepo(clk), func() {}, nil
	}
}
