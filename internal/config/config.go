// Package config loads the storefront service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/renovamx/storefront/pkg/config"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Order    OrderConfig
	CORS     CORSConfig
	Tracing  TracingConfig
}

// PostgresConfig configures the account cart and checkout session store.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"storefront"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	DBName   string `env:"POSTGRES_DB" envDefault:"storefront"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"25"`
	MinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"5"`
}

// RedisConfig configures the device cart snapshot store.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL  time.Duration `env:"CART_SNAPSHOT_TTL" envDefault:"720h"`
}

// KafkaConfig configures the event producer.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
}

// CartConfig holds cart behavior knobs.
type CartConfig struct {
	MaxQuantityPerItem int `env:"CART_MAX_QUANTITY_PER_ITEM" envDefault:"99"`
}

// CheckoutConfig holds the pricing and login knobs for the wizard.
type CheckoutConfig struct {
	FreeShippingThreshold int64  `env:"FREE_SHIPPING_THRESHOLD" envDefault:"200000"`
	FlatShippingFee       int64  `env:"FLAT_SHIPPING_FEE" envDefault:"9900"`
	PromoStart            string `env:"PROMO_START" envDefault:""`
	PromoEnd              string `env:"PROMO_END" envDefault:""`
	PromoDiscount         int64  `env:"PROMO_DISCOUNT" envDefault:"0"`
	LoginURL              string `env:"LOGIN_URL" envDefault:"/login"`
}

// PromoWindow parses the RFC 3339 promotion bounds. Empty bounds mean no
// promotion is configured.
func (c CheckoutConfig) PromoWindow() (start, end time.Time, err error) {
	if c.PromoStart == "" && c.PromoEnd == "" {
		return time.Time{}, time.Time{}, nil
	}
	if start, err = time.Parse(time.RFC3339, c.PromoStart); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid PROMO_START: %w", err)
	}
	if end, err = time.Parse(time.RFC3339, c.PromoEnd); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid PROMO_END: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("PROMO_END is before PROMO_START")
	}
	return start, end, nil
}

// OrderConfig points at the order-submission collaborator.
type OrderConfig struct {
	ServiceURL string        `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8081"`
	Timeout    time.Duration `env:"ORDER_SERVICE_TIMEOUT" envDefault:"15s"`
}

// CORSConfig configures the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.Checkout.FlatShippingFee < 0 {
		return fmt.Errorf("FLAT_SHIPPING_FEE must not be negative")
	}
	if c.Checkout.FreeShippingThreshold < 0 {
		return fmt.Errorf("FREE_SHIPPING_THRESHOLD must not be negative")
	}
	if c.Checkout.PromoDiscount < 0 {
		return fmt.Errorf("PROMO_DISCOUNT must not be negative")
	}
	if _, _, err := c.Checkout.PromoWindow(); err != nil {
		return err
	}
	if c.Order.ServiceURL == "" {
		return fmt.Errorf("ORDER_SERVICE_URL is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	return nil
}
