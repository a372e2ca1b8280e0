package config

import (
	"github.com/worldcities/worldcities-api/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	SQLite   SQLiteConfig        `mapstructure:"sqlite"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Cache    CacheConfig         `mapstructure:"cache"`
	Paging   PagingConfig        `mapstructure:"paging"`
	HTTP     HTTPConfig          `mapstructure:"http"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

// StorageConfig selects the backend. Timeouts are in seconds.
type StorageConfig struct {
	Driver         string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	ConnectTimeout int    `mapstructure:"connect_timeout" validate:"min=0"`
}

// PostgresConfig durations are in seconds, matching the pgxpool knobs they feed.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type SQLiteConfig struct {
	// Path is a file path or ":memory:".
	Path string `mapstructure:"path" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     int    `mapstructure:"ttl" validate:"min=0"`
	Prefix  string `mapstructure:"prefix"`
}

type PagingConfig struct {
	DefaultPageSize int  `mapstructure:"default_page_size" validate:"min=1"`
	MaxPageSize     int  `mapstructure:"max_page_size" validate:"gtefield=DefaultPageSize"`
	StrictSort      bool `mapstructure:"strict_sort"`
}

type HTTPConfig struct {
	CORSOrigins     []string `mapstructure:"cors_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
}
