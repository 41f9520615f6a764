package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/config"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/registry"
	"github.com/feral-file/ff-sovereignty/internal/store"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	envPath     = flag.String("env", "config/", "Path to environment files")
	catalogPath = flag.String("catalog", "", "Path to the territory catalogue, overrides catalog_path")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSeedConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = logger.Initialize(logger.Config{
		Service:         "seed",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "seed",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	// Load and validate the catalogue before touching the database
	loader := registry.NewCatalogLoader(adapter.NewFileSystem(), adapter.NewJSON())
	catalog, err := loader.Load(cfg.CatalogPath)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load territory catalogue", zap.Error(err), zap.String("path", cfg.CatalogPath))
	}
	logger.InfoCtx(ctx, "Loaded territory catalogue",
		zap.String("path", cfg.CatalogPath),
		zap.Int("territories", catalog.Len()),
	)

	db, err := store.OpenPostgres(cfg.Database.DSN(), nil)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	// Existing territories are left untouched, so seeding is safe to re-run
	inserted := 0
	for i, batch := range catalog.Batches(cfg.BatchSize) {
		if ctx.Err() != nil {
			logger.WarnCtx(ctx, "Seeding interrupted", zap.Int("inserted", inserted))
			return
		}

		n, err := dataStore.SeedTerritories(ctx, batch)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to seed territories", zap.Error(err), zap.Int("batch", i))
		}
		inserted += n
		logger.DebugCtx(ctx, "Seeded batch",
			zap.Int("batch", i),
			zap.Int("size", len(batch)),
			zap.Int("inserted", n),
		)
	}

	logger.InfoCtx(ctx, "Seeding completed",
		zap.Int("inserted", inserted),
		zap.Int("skipped", catalog.Len()-inserted),
	)
}
