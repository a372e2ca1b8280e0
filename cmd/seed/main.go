// Command seed imports worldcities.xlsx into the configured storage.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worldcities/worldcities-api/internal/cache"
	"github.com/worldcities/worldcities-api/internal/config"
	"github.com/worldcities/worldcities-api/internal/logger"
	"github.com/worldcities/worldcities-api/internal/seed"
	"github.com/worldcities/worldcities-api/internal/service"
	"github.com/worldcities/worldcities-api/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	file := flag.String("file", "worldcities.xlsx", "workbook to import")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}
	// The importer needs the schema regardless of the server setting.
	cfg.Storage.AutoMigrate = true

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		appLogger.Fatal().Err(err).Str("file", *file).Msg("open workbook")
	}
	defer f.Close()

	store, err := storage.Open(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("storage")
	}
	defer store.Close()

	sum, err := seed.NewImporter(store.Countries, store.Cities, store.Tx, appLogger).Import(ctx, f)
	if err != nil {
		appLogger.Error().Err(err).Msg("seed failed")
		_ = store.Close()
		os.Exit(1)
	}

	if cfg.Cache.Enabled && (sum.Countries > 0 || sum.Cities > 0) {
		rc := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		pc := cache.New(rc, cfg.Cache.Prefix, time.Duration(cfg.Cache.TTL)*time.Second, appLogger)
		pc.Invalidate(ctx, service.EntityCountries)
		pc.Invalidate(ctx, service.EntityCities)
	}

	appLogger.Info().
		Int("countries", sum.Countries).
		Int("cities", sum.Cities).
		Int("skipped", sum.Skipped).
		Msg("✅ Seed complete")
}
