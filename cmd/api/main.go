package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
	"github.com/feral-file/ff-sovereignty/internal/api/realtime"
	"github.com/feral-file/ff-sovereignty/internal/api/server"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/executor"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/bridge"
	"github.com/feral-file/ff-sovereignty/internal/config"
	"github.com/feral-file/ff-sovereignty/internal/guard"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/providers/jetstream"
	"github.com/feral-file/ff-sovereignty/internal/providers/signalr"
	"github.com/feral-file/ff-sovereignty/internal/ratelimit"
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
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "api-server",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Territory Sovereignty API")

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	dataStore := openStore(ctx, cfg)
	walletClient := openWallet(cfg.Wallet, jsonAdapter, clock)

	policy, err := auction.PolicyFromConfig(cfg.Auction)
	if err != nil {
		logger.FatalCtx(ctx, "Invalid auction policy", zap.Error(err))
	}

	// Rate limiter
	limiter, err := openLimiter(ctx, cfg, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
	}
	defer func() { _ = limiter.Close() }()

	// The hub merges every delta, local or from other processes, before subscribers see it
	cache, err := reconcile.NewCache(cfg.Stream.CacheSize)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create delta cache", zap.Error(err))
	}
	hub := reconcile.NewHub(cache, cfg.Stream.SubscriberBuffer)
	defer hub.Close()

	sinks := []reconcile.Sink{hub}

	var deltaBridge bridge.Bridge
	if cfg.NATS.URL != "" {
		natsJS := adapter.NewNatsJetStream()
		jsConfig := jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxAge:         cfg.NATS.MaxAge,
		}

		publisher, err := jetstream.NewPublisher(ctx, jsConfig, natsJS, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create JetStream publisher", zap.Error(err))
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)

		// Every replica consumes the whole stream so its subscribers see every change
		subscriber, err := jetstream.NewSubscriber(jetstream.SubscriberConfig{
			Config:       jsConfig,
			ConsumerName: fmt.Sprintf("%s-%s", cfg.NATS.ConsumerName, ulid.Make().String()),
			AckWait:      cfg.NATS.AckWait,
			MaxDeliver:   cfg.NATS.MaxDeliver,
		}, natsJS, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create JetStream subscriber", zap.Error(err))
		}
		deltaBridge = bridge.NewBridge(subscriber, hub)
		defer deltaBridge.Close()

		logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))
	} else {
		logger.WarnCtx(ctx, "NATS not configured, deltas stay in this process")
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
	engine := auction.NewEngine(dataStore, walletClient, broadcaster, clock, policy)
	admission := guard.NewGuard(engine, limiter, guard.Config{
		BidRule:            ratelimit.Rule{Limit: cfg.RateLimit.Bid.Limit, Period: cfg.RateLimit.Bid.Period},
		BuyNowRule:         ratelimit.Rule{Limit: cfg.RateLimit.BuyNow.Limit, Period: cfg.RateLimit.BuyNow.Period},
		MaxConflictRetries: cfg.Guard.MaxConflictRetries,
	})
	exec := executor.NewExecutor(engine, admission)

	stream := realtime.NewHandler(hub, exec, jsonAdapter, realtime.Config{
		WriteTimeout:   cfg.Stream.WriteTimeout,
		PingInterval:   cfg.Stream.PingInterval,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := server.New(server.Config{
		Debug:              cfg.Debug,
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:        time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}, exec, stream)

	var refunds sweeper.Sweeper
	if cfg.RefundSweeper.Enabled {
		refunds = sweeper.NewRefundSweeper(sweeper.RefundConfig{
			Config: sweeper.Config{
				Interval:       cfg.RefundSweeper.Interval,
				BatchSize:      cfg.RefundSweeper.BatchSize,
				WorkerPoolSize: cfg.RefundSweeper.Worker.WorkerPoolSize,
			},
			CreditTimeout:    policy.WalletTimeout,
			CreditMaxElapsed: cfg.RefundSweeper.CreditMaxElapsed,
			MaxBackoff:       cfg.RefundSweeper.MaxBackoff,
		}, dataStore, walletClient, clock)
		logger.InfoCtx(ctx, "Crediting refunds in process", zap.Duration("interval", cfg.RefundSweeper.Interval))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	if deltaBridge != nil {
		g.Go(func() error {
			return deltaBridge.Run(gctx)
		})
	}
	if refunds != nil {
		g.Go(func() error {
			return refunds.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()

		// Create shutdown context with timeout (don't use canceled ctx)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if refunds != nil {
			if err := refunds.Stop(shutdownCtx); err != nil {
				logger.ErrorCtx(shutdownCtx, err, zap.String("sweeper", refunds.Name()))
			}
		}

		// Stream connections are hijacked, so the server does not wait for them
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err, zap.String("component", "api"))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

func openStore(ctx context.Context, cfg *config.APIConfig) store.Store {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.WarnCtx(ctx, "Using in-memory store, state is lost on restart")
		return store.NewMemoryStore()
	}

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

	return store.NewPGStore(db)
}

func openWallet(cfg config.WalletConfig, jsonAdapter adapter.JSON, clock adapter.Clock) wallet.Wallet {
	if cfg.Driver == config.WalletDriverLedger {
		logger.Warn("Using in-memory wallet ledger", zap.Int64("initial_balance", cfg.InitialBalance))
		return wallet.NewLedger(cfg.InitialBalance)
	}
	return wallet.NewHTTPWallet(wallet.Config{
		BaseURL: cfg.URL,
		Secret:  cfg.Secret,
		Timeout: cfg.Timeout,
	}, adapter.NewHTTPClient(cfg.Timeout), jsonAdapter, clock)
}

func openLimiter(ctx context.Context, cfg *config.APIConfig, clock adapter.Clock) (ratelimit.Limiter, error) {
	local, err := ratelimit.NewLocalLimiter(cfg.RateLimit.CacheSize, clock)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit.Driver != config.RateLimitDriverRedis {
		return local, nil
	}

	rc, err := adapter.NewRedisClientFromURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	logger.InfoCtx(ctx, "Using Redis rate limiter")
	return ratelimit.NewRedisLimiter(rc, local, clock, ""), nil
}
