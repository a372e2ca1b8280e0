package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the YAML file at path, applies APP_* environment overrides and
// validates the result. A .env file next to the config is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindSecrets(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the sections that are in use for the selected driver.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := v.Struct(c.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	switch c.Storage.Driver {
	case "postgres":
		if err := v.Struct(c.Postgres); err != nil {
			return fmt.Errorf("postgres config: %w", err)
		}
	case "sqlite":
		if err := v.Struct(c.SQLite); err != nil {
			return fmt.Errorf("sqlite config: %w", err)
		}
	}
	if err := v.Struct(c.Paging); err != nil {
		return fmt.Errorf("paging config: %w", err)
	}
	if err := v.Struct(c.Cache); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		return errors.New("cache config: redis.addr is required when cache.enabled is true")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "worldcities-api")
	v.SetDefault("app.version", "0.0.1")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", 8080)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.auto_migrate", true)
	v.SetDefault("storage.connect_timeout", 30)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 60)

	v.SetDefault("sqlite.path", "worldcities.db")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 60)
	v.SetDefault("cache.prefix", "worldcities")

	v.SetDefault("paging.default_page_size", 10)
	v.SetDefault("paging.max_page_size", 100)
	v.SetDefault("paging.strict_sort", false)

	// The Angular dev server.
	v.SetDefault("http.cors_origins", []string{"http://localhost:4200"})
	v.SetDefault("http.read_timeout", 15)
	v.SetDefault("http.write_timeout", 30)
	v.SetDefault("http.shutdown_timeout", 10)
}

// bindSecrets lets credentials come from the canonical APP_* names or the
// conventional names used by container images and CI.
func bindSecrets(v *viper.Viper) error {
	bindings := map[string][]string{
		"postgres.user":     {"APP_POSTGRES_USER", "POSTGRES_USER", "DB_USER"},
		"postgres.password": {"APP_POSTGRES_PASSWORD", "POSTGRES_PASSWORD", "DB_PASSWORD"},
		"postgres.db":       {"APP_POSTGRES_DB", "POSTGRES_DB", "DB_NAME"},
		"redis.password":    {"APP_REDIS_PASSWORD", "REDIS_PASSWORD"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
