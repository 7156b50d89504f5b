package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/akotliarov/weather-favorites/internal/cache"
	"github.com/akotliarov/weather-favorites/internal/config"
	"github.com/akotliarov/weather-favorites/internal/favorites"
	httphandler "github.com/akotliarov/weather-favorites/internal/http"
	"github.com/akotliarov/weather-favorites/internal/observability"
	"github.com/akotliarov/weather-favorites/internal/provider"
	"github.com/akotliarov/weather-favorites/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	providerClient, err := provider.NewAccuWeatherClient(cfg.ProviderAPIKey, cfg.ProviderBaseURL, cfg.ProviderTimeout)
	if err != nil {
		logger.Fatal("provider client", zap.Error(err))
	}

	var kv cache.KV
	var storeClose func() error
	switch cfg.StoreBackend {
	case "redis":
		rdb := cache.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		kv = rdb
		storeClose = rdb.Close
		logger.Info("store backend: redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	case "memcached":
		mc := cache.NewMemcachedKV(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		kv = mc
		storeClose = mc.Close
		logger.Info("store backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		kv = cache.NewMemoryKV()
		logger.Warn("store backend: in_memory; favorites will not survive a restart")
	}
	store := cache.NewStore(kv, logger)

	// Backends that can report reachability feed the health endpoint.
	var storePing func(ctx context.Context) error
	if p, ok := kv.(cache.Pinger); ok {
		storePing = p.Ping
	}

	orchestrator := weather.NewOrchestrator(providerClient, store, cfg.ProactiveTTL, cfg.OnDemandTTL, logger)
	favs := favorites.NewManager(store, orchestrator, cfg.FavoritesMax, cfg.SessionMaxAge, logger)

	handler := httphandler.NewHandler(orchestrator, favs, logger, cfg.PlaceMaxLength, storePing)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/").Subrouter()
	api.Use(httphandler.SessionMiddleware(cfg.SessionCookieName, cfg.SessionMaxAge))
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("/weather/{place}", handler.GetWeather).Methods("GET")
	api.HandleFunc("/favorites", handler.GetFavorites).Methods("GET")
	api.HandleFunc("/favorites/names", handler.GetFavoriteNames).Methods("GET")
	api.HandleFunc("/favorites/{place}", handler.AddFavorite).Methods("POST")
	api.HandleFunc("/favorites/{place}", handler.RemoveFavorite).Methods("DELETE")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	httphandler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if storeClose != nil {
		if err := storeClose(); err != nil {
			logger.Error("store close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
