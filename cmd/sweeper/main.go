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
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/config"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/providers/jetstream"
	"github.com/feral-file/ff-sovereignty/internal/providers/signalr"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
	"github.com/feral-file/ff-sovereignty/internal/store"
	"github.com/feral-file/ff-sovereignty/internal/sweeper"
	"github.com/feral-file/ff-sovereignty/internal/wallet"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "sweeper",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := store.OpenPostgres(cfg.Database.DSN(), nil)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// The sweeper has no local subscribers; its deltas reach clients through the broker
	var sinks []reconcile.Sink
	if cfg.NATS.URL != "" {
		publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxAge:         cfg.NATS.MaxAge,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create JetStream publisher", zap.Error(err))
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	} else {
		logger.WarnCtx(ctx, "NATS not configured, sweeper deltas will not reach clients")
	}
	if cfg.SignalR.URL != "" {
		sink := signalr.NewSink(signalr.Config{
			URL:         cfg.SignalR.URL,
			AccessToken: cfg.SignalR.AccessToken,
			Target:      cfg.SignalR.Target,
		}, adapter.NewSignalR(), clock)
		defer sink.Close()
		sinks = append(sinks, sink)
	}
	broadcaster := reconcile.NewBroadcaster(clock, jsonAdapter, sinks...)

	var sweepers []sweeper.Sweeper

	if cfg.ProtectionSweeper.Enabled {
		sweepers = append(sweepers, sweeper.NewProtectionSweeper(sweeper.Config{
			Interval:       cfg.ProtectionSweeper.Interval,
			BatchSize:      cfg.ProtectionSweeper.BatchSize,
			WorkerPoolSize: cfg.ProtectionSweeper.Worker.WorkerPoolSize,
		}, dataStore, broadcaster, clock))

		logger.InfoCtx(ctx, "Initialized protection sweeper",
			zap.Duration("interval", cfg.ProtectionSweeper.Interval),
			zap.Int("batch_size", cfg.ProtectionSweeper.BatchSize),
			zap.Int("worker_pool_size", cfg.ProtectionSweeper.Worker.WorkerPoolSize),
		)
	}

	var walletClient wallet.Wallet
	if cfg.Wallet.Driver == config.WalletDriverLedger {
		walletClient = wallet.NewLedger(cfg.Wallet.InitialBalance)
	} else {
		walletClient = wallet.NewHTTPWallet(wallet.Config{
			BaseURL: cfg.Wallet.URL,
			Secret:  cfg.Wallet.Secret,
			Timeout: cfg.Wallet.Timeout,
		}, adapter.NewHTTPClient(cfg.Wallet.Timeout), jsonAdapter, clock)
	}

	if cfg.AuctionSweeper.Enabled {
		policy, err := auction.PolicyFromConfig(cfg.Auction)
		if err != nil {
			logger.FatalCtx(ctx, "Invalid auction policy", zap.Error(err))
		}

		engine := auction.NewEngine(dataStore, walletClient, broadcaster, clock, policy)
		sweepers = append(sweepers, sweeper.NewAuctionExpirySweeper(sweeper.Config{
			Interval:       cfg.AuctionSweeper.Interval,
			BatchSize:      cfg.AuctionSweeper.BatchSize,
			WorkerPoolSize: cfg.AuctionSweeper.Worker.WorkerPoolSize,
		}, dataStore, engine, clock))

		logger.InfoCtx(ctx, "Initialized auction expiry sweeper",
			zap.Duration("interval", cfg.AuctionSweeper.Interval),
			zap.Int("batch_size", cfg.AuctionSweeper.BatchSize),
			zap.Int("worker_pool_size", cfg.AuctionSweeper.Worker.WorkerPoolSize),
		)
	}

	if cfg.RefundSweeper.Enabled {
		sweepers = append(sweepers, sweeper.NewRefundSweeper(sweeper.RefundConfig{
			Config: sweeper.Config{
				Interval:       cfg.RefundSweeper.Interval,
				BatchSize:      cfg.RefundSweeper.BatchSize,
				WorkerPoolSize: cfg.RefundSweeper.Worker.WorkerPoolSize,
			},
			CreditTimeout:    cfg.Auction.WalletTimeout,
			CreditMaxElapsed: cfg.RefundSweeper.CreditMaxElapsed,
			MaxBackoff:       cfg.RefundSweeper.MaxBackoff,
		}, dataStore, walletClient, clock))

		logger.InfoCtx(ctx, "Initialized refund sweeper",
			zap.Duration("interval", cfg.RefundSweeper.Interval),
			zap.Int("batch_size", cfg.RefundSweeper.BatchSize),
			zap.Duration("max_backoff", cfg.RefundSweeper.MaxBackoff),
		)
	}

	if len(sweepers) == 0 {
		logger.WarnCtx(ctx, "No sweeper enabled, exiting")
		return
	}

	// Start every sweeper; the first failure stops the others
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sweepers {
		g.Go(func() error {
			if err := s.Start(gctx); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.ErrorCtx(ctx, err)
		}
	}

	// Cancel context to stop the sweepers
	cancel()

	// Give the sweepers time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	for _, s := range sweepers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err, zap.String("sweeper", s.Name()))
		}
	}

	logger.Info("Sweeper stopped")
}
