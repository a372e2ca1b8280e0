package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcities/worldcities-api/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_POSTGRES_USER", "APP_POSTGRES_PASSWORD", "APP_POSTGRES_DB",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"DB_USER", "DB_PASSWORD", "DB_NAME",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigLoad_FromYAMLAndEnv(t *testing.T) {
	// Minimal YAML; secrets will come from ENV
	yaml := `
app:
  name: worldcities-api
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json
  output_target: stdout
  time_format: rfc3339

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
  min_conns: 1
  max_conn_lifetime: 60
  max_conn_idle_time: 30
  health_check_period: 15
`
	path := writeTempConfig(t, yaml)
	clearSecrets(t)

	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Postgres.MaxConns)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "rfc3339", cfg.Logger.TimeFormat)

	// defaults
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.AutoMigrate)
	assert.Equal(t, 10, cfg.Paging.DefaultPageSize)
	assert.Equal(t, 100, cfg.Paging.MaxPageSize)
	assert.False(t, cfg.Paging.StrictSort)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.HTTP.CORSOrigins)
}

func TestConfigLoad_ConventionalEnvNames(t *testing.T) {
	path := writeTempConfig(t, "app:\n  port: 8080\n")
	clearSecrets(t)
	t.Setenv("POSTGRES_USER", "pguser")
	t.Setenv("DB_PASSWORD", "pgpass")
	t.Setenv("POSTGRES_DB", "world")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pguser", cfg.Postgres.User)
	assert.Equal(t, "pgpass", cfg.Postgres.Password)
	assert.Equal(t, "world", cfg.Postgres.DBName)
}

func TestConfigLoad_MissingRequiredEnvFails(t *testing.T) {
	yaml := `
app:
  name: abc
  port: 18080

postgres:
  host: localhost
  port: 5432
`
	path := writeTempConfig(t, yaml)
	clearSecrets(t)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestConfigLoad_SQLiteNeedsNoPostgresSecrets(t *testing.T) {
	yaml := `
storage:
  driver: sqlite
sqlite:
  path: ":memory:"
paging:
  default_page_size: 20
  max_page_size: 50
  strict_sort: true
`
	path := writeTempConfig(t, yaml)
	clearSecrets(t)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, ":memory:", cfg.SQLite.Path)
	assert.Equal(t, 20, cfg.Paging.DefaultPageSize)
	assert.True(t, cfg.Paging.StrictSort)
}

func TestConfigLoad_DotEnvNextToConfig(t *testing.T) {
	path := writeTempConfig(t, "storage:\n  driver: postgres\n")
	clearSecrets(t)
	// godotenv never overrides variables that are already set, even to "".
	for _, k := range []string{"APP_POSTGRES_USER", "APP_POSTGRES_PASSWORD", "APP_POSTGRES_DB"} {
		old, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}
	dotenv := "APP_POSTGRES_USER=fromfile\nAPP_POSTGRES_PASSWORD=secret\nAPP_POSTGRES_DB=cities\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte(dotenv), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Postgres.User)
	assert.Equal(t, "cities", cfg.Postgres.DBName)
}

func TestConfigLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "storage:\n  driver: mysql\n"},
		{"max page below default", "storage:\n  driver: sqlite\npaging:\n  default_page_size: 50\n  max_page_size: 10\n"},
		{"cache without redis", "storage:\n  driver: sqlite\ncache:\n  enabled: true\n"},
		{"port out of range", "storage:\n  driver: sqlite\napp:\n  port: 70000\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearSecrets(t)
			_, err := config.Load(writeTempConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestConfigLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
