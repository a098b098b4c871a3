package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds environment-driven configuration.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Session  SessionConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
}

type HTTPConfig struct {
	Addr             string
	CORSAllowOrigins string
}

type DatabaseConfig struct {
	URL               string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	MigrationsEnabled bool
	SeedDemoProducts  bool
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AuthConfig configures the JWT cookie and the single admin account.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	CookieName    string
	CookieSecure  bool
	AdminEmail    string
	AdminPassword string
}

type SessionConfig struct {
	Driver     string // memory, redis
	CookieName string
	TTL        time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CheckoutConfig struct {
	TaxRate         float64
	MaxStockRetries int
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	Topic          string
	PublishTimeout time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and STORE_-prefixed environment variables, in increasing
// order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:             v.GetString("http.addr"),
			CORSAllowOrigins: v.GetString("http.cors_allow_origins"),
		},
		Database: DatabaseConfig{
			URL:               v.GetString("database.url"),
			MaxOpenConns:      v.GetInt("database.max_open_conns"),
			MaxIdleConns:      v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:   v.GetDuration("database.conn_max_lifetime"),
			MigrationsEnabled: v.GetBool("database.migrations_enabled"),
			SeedDemoProducts:  v.GetBool("database.seed_demo_products"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			CookieName:    v.GetString("auth.cookie_name"),
			CookieSecure:  v.GetBool("auth.cookie_secure"),
			AdminEmail:    v.GetString("auth.admin_email"),
			AdminPassword: v.GetString("auth.admin_password"),
		},
		Session: SessionConfig{
			Driver:     v.GetString("session.driver"),
			CookieName: v.GetString("session.cookie_name"),
			TTL:        v.GetDuration("session.ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Checkout: CheckoutConfig{
			TaxRate:         v.GetFloat64("checkout.tax_rate"),
			MaxStockRetries: v.GetInt("checkout.max_stock_retries"),
		},
		Kafka: KafkaConfig{
			Enabled:        v.GetBool("kafka.enabled"),
			Brokers:        v.GetStringSlice("kafka.brokers"),
			Topic:          v.GetString("kafka.topic"),
			PublishTimeout: v.GetDuration("kafka.publish_timeout"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	// tax rate zero is a legitimate value, so only default it when unset
	if !v.IsSet("checkout.tax_rate") {
		cfg.Checkout.TaxRate = 0.05
	}
	if !v.IsSet("checkout.max_stock_retries") {
		cfg.Checkout.MaxStockRetries = 3
	}
	if !v.IsSet("database.migrations_enabled") {
		cfg.Database.MigrationsEnabled = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.CORSAllowOrigins == "" {
		cfg.HTTP.CORSAllowOrigins = "*"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "access_token_cookie"
	}
	if cfg.Session.Driver == "" {
		cfg.Session.Driver = "memory"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "cart_session"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"127.0.0.1:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "orders.placed"
	}
	if cfg.Kafka.PublishTimeout <= 0 {
		cfg.Kafka.PublishTimeout = 2 * time.Second
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (STORE_DATABASE_URL)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required (STORE_AUTH_JWT_SECRET)")
	}
	if c.Checkout.TaxRate < 0 || c.Checkout.TaxRate > 1 {
		return fmt.Errorf("checkout tax rate must be within [0,1], got %v", c.Checkout.TaxRate)
	}
	if c.Checkout.MaxStockRetries < 0 {
		return fmt.Errorf("checkout max stock retries must not be negative, got %d", c.Checkout.MaxStockRetries)
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	return nil
}
