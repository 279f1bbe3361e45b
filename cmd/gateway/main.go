package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/poller"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

const serviceName = "storefront-gateway"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := context.Background()

	loc, err := cfg.Orders.Location()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	client, err := remote.New(remote.Options{
		BaseURL:         cfg.Remote.BaseURL,
		Timeout:         cfg.Remote.Timeout,
		BreakerFailures: cfg.Remote.BreakerFailures,
		BreakerCooldown: cfg.Remote.BreakerCooldown,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		return fmt.Errorf("creating store client: %w", err)
	}

	var cache settings.Cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info(ctx, "redis ping succeeded")
		cache = settings.NewRedisCache(redisClient, cfg.Redis.SettingsTTL)
	}
	accessor := settings.NewAccessor(client, cache, log, m)

	manager := session.NewManager(func(token string) session.Remote {
		return client.WithToken(token)
	}, session.Options{
		MaxParallel:      cfg.Stock.MaxParallel,
		PickupWindowDays: cfg.Orders.PickupWindowDays,
		Clock:            clock.NewSystem(loc),
		Logger:           log,
		Metrics:          m,
	})

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	var checkoutPoller *poller.Poller
	if cfg.Kafka.Enabled() {
		checkoutPoller = poller.NewPoller(manager, log, poller.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		go checkoutPoller.Run(pollCtx)
		log.Info(ctx, fmt.Sprintf("polling checkout events from %s", cfg.Kafka.Topic))
	}

	router := h.NewRouter(h.RouterConfig{
		Sessions:       manager,
		Products:       client,
		Settings:       accessor,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         log,
		RequestTimeout: cfg.App.RequestTimeout,
		Location:       loc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, fmt.Sprintf("storefront gateway starting on :%s", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.App.ShutdownTimeout)
	defer cancel()

	var errs error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	stopPolling()
	if checkoutPoller != nil {
		checkoutPoller.Close()
	}
	if redisClient != nil {
		errs = multierr.Append(errs, redisClient.Close())
	}
	if errs != nil {
		return errs
	}

	log.Info(ctx, "server exited")
	return nil
}
