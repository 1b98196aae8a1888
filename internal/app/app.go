// Package app wires the storefront service together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renovamx/storefront/internal/cart"
	cartpg "github.com/renovamx/storefront/internal/cart/repository/postgres"
	"github.com/renovamx/storefront/internal/cart/repository/redisstore"
	"github.com/renovamx/storefront/internal/checkout"
	checkoutpg "github.com/renovamx/storefront/internal/checkout/repository/postgres"
	"github.com/renovamx/storefront/internal/config"
	"github.com/renovamx/storefront/internal/event"
	handler "github.com/renovamx/storefront/internal/handler/http"
	"github.com/renovamx/storefront/internal/order"
	"github.com/renovamx/storefront/internal/session"
	"github.com/renovamx/storefront/pkg/database"
	"github.com/renovamx/storefront/pkg/health"
	"github.com/renovamx/storefront/pkg/kafka"
	"github.com/renovamx/storefront/pkg/middleware"
	"github.com/renovamx/storefront/pkg/tracing"
)

// App is the assembled storefront service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server

	redis           *redis.Client
	pgClose         func()
	producer        *kafka.Producer
	tracingShutdown func(context.Context) error
}

// New builds the service from configuration: connects the stores, wires the
// cart and checkout cores, and assembles the router.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracingShutdown = shutdownTracing

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = redisClient

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.Postgres.Host
	pgCfg.Port = cfg.Postgres.Port
	pgCfg.User = cfg.Postgres.User
	pgCfg.Password = cfg.Postgres.Password
	pgCfg.DBName = cfg.Postgres.DBName
	pgCfg.SSLMode = cfg.Postgres.SSLMode
	pgCfg.MaxConns = cfg.Postgres.MaxConns
	pgCfg.MinConns = cfg.Postgres.MinConns
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.pgClose = pool.Close

	var events *event.Producer
	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.Kafka.Brokers), log)
		events = event.NewProducer(a.producer)
	}

	snapshots := redisstore.NewSnapshotStore(redisClient, cfg.Redis.CartTTL)
	accounts := cartpg.NewAccountStore(pool)
	carts := cart.NewManager(snapshots, accounts, cartEvents(events), cfg.Cart.MaxQuantityPerItem, log)

	promoStart, promoEnd, err := cfg.Checkout.PromoWindow()
	if err != nil {
		return nil, err
	}
	checkoutSvc := checkout.NewService(
		checkoutpg.NewSessionRepository(pool),
		carts,
		order.NewHTTPSubmitter(cfg.Order.ServiceURL, cfg.Order.Timeout, log),
		checkoutEvents(events),
		checkout.Promotion{Start: promoStart, End: promoEnd, Discount: cfg.Checkout.PromoDiscount},
		checkout.Rates{
			FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
			FlatShippingFee:       cfg.Checkout.FlatShippingFee,
		},
		cfg.Checkout.LoginURL,
		log,
	)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Environment = cfg.Environment
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins
	}

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		Carts:       carts,
		Checkout:    checkoutSvc,
		Sessions:    session.HeaderProvider{},
		Health:      healthHandler,
		CORS:        corsCfg,
		Logger:      log,
	})

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// cartEvents keeps the manager's events field a true nil when Kafka is off.
func cartEvents(p *event.Producer) cart.Events {
	if p == nil {
		return nil
	}
	return p
}

func checkoutEvents(p *event.Producer) checkout.Events {
	if p == nil {
		return nil
	}
	return p
}

// Run serves HTTP until the listener fails or Shutdown is called.
func (a *App) Run() error {
	a.logger.Info("storefront listening", slog.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains the server and closes every connection.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.pgClose != nil {
		a.pgClose()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
