// Package storage opens the configured backend, applies migrations and wires
// the repositories on top of it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/worldcities/worldcities-api/internal/config"
	"github.com/worldcities/worldcities-api/internal/repository"
	"github.com/worldcities/worldcities-api/internal/repository/postgres"
	"github.com/worldcities/worldcities-api/internal/repository/sqlite"
	"github.com/worldcities/worldcities-api/internal/repository/sqlstore"
	"github.com/worldcities/worldcities-api/migrations"
)

// Storage bundles the repositories that share one database handle.
type Storage struct {
	DB        sqlstore.DB
	Countries repository.CountryRepository
	Cities    repository.CityRepository
	Tx        repository.TxManager
	Pinger    repository.Pinger
}

// New wires repositories over an already opened database.
func New(db sqlstore.DB) *Storage {
	return &Storage{
		DB:        db,
		Countries: sqlstore.NewCountryRepository(db),
		Cities:    sqlstore.NewCityRepository(db),
		Tx:        sqlstore.NewTxManager(db),
		Pinger:    sqlstore.NewPinger(db),
	}
}

func (s *Storage) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Open connects to the configured driver, retrying with exponential backoff
// until storage.connect_timeout elapses, then runs migrations when enabled.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	log := logger.With().Str("module", "storage").Str("driver", cfg.Storage.Driver).Logger()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = time.Duration(cfg.Storage.ConnectTimeout) * time.Second
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = time.Nanosecond // single attempt
	}

	var db sqlstore.DB
	connect := func() error {
		var err error
		db, err = dial(ctx, cfg, logger)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("storage not ready")
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Storage.Driver, err)
	}

	if cfg.Storage.AutoMigrate {
		n, err := migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Int("applied", n).Msg("migrations applied")
	}
	return New(db), nil
}

func dial(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (sqlstore.DB, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLite.Path)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver))
	}
}

// Migrate applies the embedded migrations matching db's dialect.
func Migrate(ctx context.Context, db sqlstore.DB) error {
	_, err := migrate(ctx, db)
	return err
}

func migrate(ctx context.Context, db sqlstore.DB) (int, error) {
	switch d := db.(type) {
	case *postgres.DB:
		// Not closed: the handle keeps no idle connections and the pool stays owned by d.
		sqlDB := stdlib.OpenDBFromPool(d.Pool())
		return migrations.Up(ctx, sqlDB, "postgres")
	case *sqlite.DB:
		return migrations.Up(ctx, d.SQL(), "sqlite")
	default:
		return 0, fmt.Errorf("migrations: unsupported database %T", db)
	}
}
