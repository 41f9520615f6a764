package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "pg"
	StoreDriverMemory   = "memory"

	WalletDriverHTTP   = "http"
	WalletDriverLedger = "ledger"

	RateLimitDriverLocal = "local"
	RateLimitDriverRedis = "redis"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// Connection pool
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// StoreConfig selects the ownership store backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// NATSConfig holds NATS JetStream configuration for delta fan-out.
// An empty URL disables JetStream.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// SignalRConfig holds the SignalR hub configuration. An empty URL disables the sink.
type SignalRConfig struct {
	URL         string `mapstructure:"url"`
	AccessToken string `mapstructure:"access_token"`
	Target      string `mapstructure:"target"`
}

// WalletConfig holds wallet service configuration
type WalletConfig struct {
	Driver  string        `mapstructure:"driver"`
	URL     string        `mapstructure:"url"`
	Secret  string        `mapstructure:"secret"`
	Timeout time.Duration `mapstructure:"timeout"`

	// InitialBalance is credited to every account the ledger has not seen before
	InitialBalance int64 `mapstructure:"initial_balance"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // seconds

	// CORSAllowedOrigins restricts browser origins; empty allows all
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// AuctionConfig holds the auction policy
type AuctionConfig struct {
	Increment            int64         `mapstructure:"increment"`
	DefaultDuration      time.Duration `mapstructure:"default_duration"`
	MinDuration          time.Duration `mapstructure:"min_duration"`
	MaxDuration          time.Duration `mapstructure:"max_duration"`
	LifetimeYears        int           `mapstructure:"lifetime_years"`
	BuyNowPremium        string        `mapstructure:"buy_now_premium"`
	BuyNowPremiumFloor   int64         `mapstructure:"buy_now_premium_floor"`
	BuyNowProtectionDays int           `mapstructure:"buy_now_protection_days"`
	WalletTimeout        time.Duration `mapstructure:"wallet_timeout"`
}

// RateRuleConfig is a limit of requests per period
type RateRuleConfig struct {
	Limit  int           `mapstructure:"limit"`
	Period time.Duration `mapstructure:"period"`
}

// RateLimitConfig holds bid admission rate limits
type RateLimitConfig struct {
	Driver    string         `mapstructure:"driver"`
	CacheSize int            `mapstructure:"cache_size"`
	Bid       RateRuleConfig `mapstructure:"bid"`
	BuyNow    RateRuleConfig `mapstructure:"buy_now"`
}

// GuardConfig holds bid admission guard configuration
type GuardConfig struct {
	MaxConflictRetries int `mapstructure:"max_conflict_retries"`
}

// StreamConfig holds realtime stream configuration
type StreamConfig struct {
	CacheSize        int           `mapstructure:"cache_size"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// SweepConfig holds configuration for a periodic sweep
type SweepConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	Worker    WorkerConfig  `mapstructure:"worker"`
}

// RefundSweepConfig holds configuration for the refund sweep
type RefundSweepConfig struct {
	SweepConfig `mapstructure:",squash"`
	// CreditMaxElapsed bounds the inline retries of one credit
	CreditMaxElapsed time.Duration `mapstructure:"credit_max_elapsed"`
	// MaxBackoff caps the delay between retries of a failing refund
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Store      StoreConfig     `mapstructure:"store"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Redis      RedisConfig     `mapstructure:"redis"`
	SignalR    SignalRConfig   `mapstructure:"signalr"`
	Wallet     WalletConfig    `mapstructure:"wallet"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Auction    AuctionConfig   `mapstructure:"auction"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Guard      GuardConfig     `mapstructure:"guard"`
	Stream     StreamConfig    `mapstructure:"stream"`

	// RefundSweeper runs in-process; it is forced on for the memory store and the ledger wallet
	RefundSweeper RefundSweepConfig `mapstructure:"refund_sweeper"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig        `mapstructure:",squash"`
	Database          DatabaseConfig    `mapstructure:"database"`
	NATS              NATSConfig        `mapstructure:"nats"`
	SignalR           SignalRConfig     `mapstructure:"signalr"`
	Wallet            WalletConfig      `mapstructure:"wallet"`
	Auction           AuctionConfig     `mapstructure:"auction"`
	ProtectionSweeper SweepConfig       `mapstructure:"protection_sweeper"`
	AuctionSweeper    SweepConfig       `mapstructure:"auction_sweeper"`
	RefundSweeper     RefundSweepConfig `mapstructure:"refund_sweeper"`
}

// SeedConfig holds configuration for the catalogue seeder
type SeedConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig `mapstructure:"database"`
	CatalogPath string         `mapstructure:"catalog_path"`
	BatchSize   int            `mapstructure:"batch_size"`
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "SOVEREIGNTY_DELTAS")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)
	v.SetDefault("nats.max_age", "24h")
}

func setWalletDefaults(v *viper.Viper) {
	v.SetDefault("wallet.driver", WalletDriverHTTP)
	v.SetDefault("wallet.timeout", "5s")
}

func setAuctionDefaults(v *viper.Viper) {
	v.SetDefault("auction.increment", 1)
	v.SetDefault("auction.default_duration", "24h")
	v.SetDefault("auction.min_duration", "1m")
	v.SetDefault("auction.max_duration", "168h")
	v.SetDefault("auction.lifetime_years", 100)
	v.SetDefault("auction.buy_now_premium", "0.15")
	v.SetDefault("auction.buy_now_premium_floor", 10)
	v.SetDefault("auction.buy_now_protection_days", 7)
	v.SetDefault("auction.wallet_timeout", "5s")
	v.SetDefault("signalr.target", "delta")
}

func setRefundSweeperDefaults(v *viper.Viper, enabled bool) {
	v.SetDefault("refund_sweeper.enabled", enabled)
	v.SetDefault("refund_sweeper.interval", "15s")
	v.SetDefault("refund_sweeper.batch_size", 100)
	v.SetDefault("refund_sweeper.worker.pool_size", 5)
	v.SetDefault("refund_sweeper.worker.queue_size", 100)
	v.SetDefault("refund_sweeper.credit_max_elapsed", "10s")
	v.SetDefault("refund_sweeper.max_backoff", "1h")
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("nats.consumer_name", "api")
	v.SetDefault("rate_limit.driver", RateLimitDriverLocal)
	v.SetDefault("rate_limit.cache_size", 10000)
	v.SetDefault("rate_limit.bid.limit", 5)
	v.SetDefault("rate_limit.bid.period", "1s")
	v.SetDefault("rate_limit.buy_now.limit", 1)
	v.SetDefault("rate_limit.buy_now.period", "1s")
	v.SetDefault("guard.max_conflict_retries", 3)
	v.SetDefault("stream.cache_size", 10000)
	v.SetDefault("stream.subscriber_buffer", 64)
	v.SetDefault("stream.write_timeout", "10s")
	v.SetDefault("stream.ping_interval", "30s")
	setDatabaseDefaults(v)
	setNATSDefaults(v)
	setWalletDefaults(v)
	setAuctionDefaults(v)
	setRefundSweeperDefaults(v, false)

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateStore(cfg.Store, cfg.Database); err != nil {
		return nil, err
	}
	if err := validateWallet(cfg.Wallet); err != nil {
		return nil, err
	}
	switch cfg.RateLimit.Driver {
	case RateLimitDriverLocal:
	case RateLimitDriverRedis:
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis.url is required for the redis rate limit driver")
		}
	default:
		return nil, fmt.Errorf("unknown rate_limit.driver %q", cfg.RateLimit.Driver)
	}
	if cfg.Store.Driver == StoreDriverMemory || cfg.Wallet.Driver == WalletDriverLedger {
		// Refunds or balances held in process memory can only be settled by this process
		cfg.RefundSweeper.Enabled = true
	}
	if cfg.RefundSweeper.Enabled && cfg.RefundSweeper.Interval <= 0 {
		return nil, errors.New("refund_sweeper.interval must be positive")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("protection_sweeper.enabled", true)
	v.SetDefault("protection_sweeper.interval", "1m")
	v.SetDefault("protection_sweeper.batch_size", 100)
	v.SetDefault("protection_sweeper.worker.pool_size", 10)
	v.SetDefault("protection_sweeper.worker.queue_size", 100)
	v.SetDefault("auction_sweeper.enabled", true)
	v.SetDefault("auction_sweeper.interval", "30s")
	v.SetDefault("auction_sweeper.batch_size", 50)
	v.SetDefault("auction_sweeper.worker.pool_size", 5)
	v.SetDefault("auction_sweeper.worker.queue_size", 50)
	setDatabaseDefaults(v)
	setNATSDefaults(v)
	setWalletDefaults(v)
	setAuctionDefaults(v)
	setRefundSweeperDefaults(v, true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateDatabase(cfg.Database); err != nil {
		return nil, err
	}
	if err := validateWallet(cfg.Wallet); err != nil {
		return nil, err
	}
	if cfg.ProtectionSweeper.Enabled && cfg.ProtectionSweeper.Interval <= 0 {
		return nil, errors.New("protection_sweeper.interval must be positive")
	}
	if cfg.AuctionSweeper.Enabled && cfg.AuctionSweeper.Interval <= 0 {
		return nil, errors.New("auction_sweeper.interval must be positive")
	}
	if cfg.RefundSweeper.Enabled && cfg.RefundSweeper.Interval <= 0 {
		return nil, errors.New("refund_sweeper.interval must be positive")
	}

	return &cfg, nil
}

// LoadSeedConfig loads configuration for the catalogue seeder
func LoadSeedConfig(configFile string, envPath string) (*SeedConfig, error) {
	v := configureViper("seed", configFile, envPath)

	// Set defaults
	v.SetDefault("catalog_path", "db/territories.json")
	v.SetDefault("batch_size", 500)
	setDatabaseDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg SeedConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		return nil, err
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("catalog_path is required")
	}

	return &cfg, nil
}

func validateDatabase(db DatabaseConfig) error {
	if db.Host == "" {
		return errors.New("database.host is required")
	}
	if db.DBName == "" {
		return errors.New("database.dbname is required")
	}
	return nil
}

func validateStore(s StoreConfig, db DatabaseConfig) error {
	switch s.Driver {
	case StoreDriverPostgres:
		return validateDatabase(db)
	case StoreDriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown store.driver %q", s.Driver)
	}
}

func validateWallet(w WalletConfig) error {
	switch w.Driver {
	case WalletDriverHTTP:
		if w.URL == "" {
			return errors.New("wallet.url is required for the http wallet driver")
		}
		if w.Secret == "" {
			return errors.New("wallet.secret is required for the http wallet driver")
		}
	case WalletDriverLedger:
	default:
		return fmt.Errorf("unknown wallet.driver %q", w.Driver)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_SOVEREIGNTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Store
		"store.driver",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.max_age",
		// Redis
		"redis.url",
		// SignalR
		"signalr.url",
		"signalr.access_token",
		"signalr.target",
		// Wallet
		"wallet.driver",
		"wallet.url",
		"wallet.secret",
		"wallet.timeout",
		"wallet.initial_balance",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Auction policy
		"auction.increment",
		"auction.default_duration",
		"auction.min_duration",
		"auction.max_duration",
		"auction.lifetime_years",
		"auction.buy_now_premium",
		"auction.buy_now_premium_floor",
		"auction.buy_now_protection_days",
		"auction.wallet_timeout",
		// Rate limit and guard
		"rate_limit.driver",
		"rate_limit.cache_size",
		"rate_limit.bid.limit",
		"rate_limit.bid.period",
		"rate_limit.buy_now.limit",
		"rate_limit.buy_now.period",
		"guard.max_conflict_retries",
		// Stream
		"stream.cache_size",
		"stream.subscriber_buffer",
		"stream.write_timeout",
		"stream.ping_interval",
		// Sweepers
		"protection_sweeper.enabled",
		"protection_sweeper.interval",
		"protection_sweeper.batch_size",
		"protection_sweeper.worker.pool_size",
		"protection_sweeper.worker.queue_size",
		"auction_sweeper.enabled",
		"auction_sweeper.interval",
		"auction_sweeper.batch_size",
		"auction_sweeper.worker.pool_size",
		"auction_sweeper.worker.queue_size",
		"refund_sweeper.enabled",
		"refund_sweeper.interval",
		"refund_sweeper.batch_size",
		"refund_sweeper.worker.pool_size",
		"refund_sweeper.worker.queue_size",
		"refund_sweeper.credit_max_elapsed",
		"refund_sweeper.max_backoff",
		// Seed
		"catalog_path",
		"batch_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
