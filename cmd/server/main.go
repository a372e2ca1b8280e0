package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/worldcities/worldcities-api/internal/cache"
	"github.com/worldcities/worldcities-api/internal/config"
	"github.com/worldcities/worldcities-api/internal/handler"
	"github.com/worldcities/worldcities-api/internal/logger"
	"github.com/worldcities/worldcities-api/internal/service"
	"github.com/worldcities/worldcities-api/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, &appLogger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	pages, closeCache, err := openCache(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	opts := service.Options{
		Paging: service.PagingOptions{
			DefaultPageSize: cfg.Paging.DefaultPageSize,
			MaxPageSize:     cfg.Paging.MaxPageSize,
			StrictSort:      cfg.Paging.StrictSort,
		},
		Cache: pages,
	}
	countrySvc := service.NewCountryService(store.Countries, store.Cities, opts, appLogger)
	citySvc := service.NewCityService(store.Cities, store.Countries, store.Tx, opts, appLogger)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := handler.NewEngine(appLogger)
	handler.Register(engine, store.Pinger, countrySvc, citySvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler.WithCORS(handler.LowercasePath(engine), cfg.HTTP.CORSOrigins),
		ReadTimeout:  seconds(cfg.HTTP.ReadTimeout, 15),
		WriteTimeout: seconds(cfg.HTTP.WriteTimeout, 15),
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("driver", cfg.Storage.Driver).Bool("cache", pages != nil).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.HTTP.ShutdownTimeout, 10))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCache returns a nil cache when caching is disabled.
func openCache(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) (*cache.PageCache, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	rc := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	if err := ping(ctx, rc); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	pc := cache.New(rc, cfg.Cache.Prefix, time.Duration(cfg.Cache.TTL)*time.Second, appLogger)
	return pc, func() { _ = rc.Close() }, nil
}

func ping(ctx context.Context, rc *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rc.Ping(ctx).Err()
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
