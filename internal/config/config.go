package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

type Config struct {
	App    AppConfig
	Remote RemoteConfig
	Stock  StockConfig
	Orders OrdersConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// a missing .env is normal outside development
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("STOREFRONT_REMOTE_BASE_URL must be an absolute url, got %q", c.Remote.BaseURL)
	}
	if c.Orders.PickupWindowDays < 0 {
		return errors.New("STOREFRONT_PICKUP_WINDOW_DAYS must not be negative")
	}
	if c.Stock.MaxParallel < 1 {
		return errors.New("STOREFRONT_STOCK_MAX_PARALLEL must be at least 1")
	}
	if _, err := c.Orders.Location(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port            string        `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	RequestTimeout  time.Duration `envconfig:"STOREFRONT_REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type RemoteConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_REMOTE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_REMOTE_TIMEOUT" default:"10s"`
	// consecutive transport failures before the breaker opens
	BreakerFailures uint32        `envconfig:"STOREFRONT_REMOTE_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"STOREFRONT_REMOTE_BREAKER_COOLDOWN" default:"30s"`
}

type StockConfig struct {
	MaxParallel int `envconfig:"STOREFRONT_STOCK_MAX_PARALLEL" default:"8"`
}

type OrdersConfig struct {
	PickupWindowDays int    `envconfig:"STOREFRONT_PICKUP_WINDOW_DAYS" default:"7"`
	TimeZone         string `envconfig:"STOREFRONT_TIME_ZONE" default:"Local"`
}

func (o OrdersConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", o.TimeZone, err)
	}
	return loc, nil
}

type RedisConfig struct {
	Address     string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password    string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB          int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	SettingsTTL time.Duration `envconfig:"STOREFRONT_REDIS_SETTINGS_TTL" default:"15m"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type KafkaConfig struct {
	Brokers []string `envconfig:"STOREFRONT_KAFKA_BROKERS"`
	Topic   string   `envconfig:"STOREFRONT_KAFKA_TOPIC" default:"checkout-outbox"`
	GroupID string   `envconfig:"STOREFRONT_KAFKA_GROUP_ID" default:"storefront-gateway"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}
