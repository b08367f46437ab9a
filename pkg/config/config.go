package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	Square       SquareConfig
	Sync         SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STAGEPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"STAGEPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STAGEPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STAGEPASS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STAGEPASS_DB_DSN"`
	Driver string `envconfig:"STAGEPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STAGEPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"STAGEPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STAGEPASS_DB_USER"`
	LegacyPassword string `envconfig:"STAGEPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STAGEPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STAGEPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STAGEPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STAGEPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STAGEPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAGEPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	query := dsn.Query()
	query.Set("sslmode", d.LegacySSLMode)
	dsn.RawQuery = query.Encode()
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STAGEPASS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STAGEPASS_REDIS_ADDR"`
	Password     string        `envconfig:"STAGEPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAGEPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAGEPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STAGEPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STAGEPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAGEPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAGEPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STAGEPASS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STAGEPASS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STAGEPASS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STAGEPASS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STAGEPASS_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the base URL the native catalog provider uses when
// it mints internal checkout links.
type CheckoutConfig struct {
	BaseURL string `envconfig:"STAGEPASS_CHECKOUT_BASE_URL" default:"https://stagepass.live/checkout"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"STAGEPASS_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"STAGEPASS_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STAGEPASS_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	return s.Env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"STAGEPASS_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"STAGEPASS_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STAGEPASS_SQUARE_ENV" default:"sandbox"`
}

func (s SquareConfig) Environment() string {
	return s.Env
}

// SyncConfig controls the storefront mirror sync worker.
type SyncConfig struct {
	Interval    time.Duration `envconfig:"STAGEPASS_SYNC_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"STAGEPASS_SYNC_LOCK_TTL" default:"50m"`
	MetricsPort string        `envconfig:"STAGEPASS_SYNC_METRICS_PORT" default:"9102"`
}
