package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

const (
	sweepInterval    = 5 * time.Minute
	workspaceMaxIdle = 30 * time.Minute
	visitorMaxIdle   = 10 * time.Minute
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "storefront",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}
	log.WithField("addr", cfg.RedisAddr).Info("redis ping succeeded")

	client := api.NewClient(api.Options{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.RequestTimeout,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, log)

	sessionStore := store.NewRedisStore(redisClient, cfg.SessionTTL)
	cartCache := cache.NewRedisCache(redisClient)
	sessions := session.NewManager(sessionStore, client, log)
	registry := storefront.NewRegistry(sessions, storefront.FromClient(client), sessionStore, cartCache, log)

	limiter := h.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(visitorMaxIdle)
			}
		}
	}()
	go registry.RunSweeper(ctx, sweepInterval, workspaceMaxIdle)

	router := h.NewRouter(h.RouterConfig{
		Workspaces:         registry,
		Sessions:           sessions,
		Restaurants:        func(token string) h.RestaurantService { return client.Restaurants(token) },
		Orders:             func(token string) h.OrderService { return client.Orders(token) },
		RateLimiter:        limiter,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      cfg.SecureCookies,
		Log:                log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}
