package postgres_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/worldcities/worldcities-api/internal/config"
	"github.com/worldcities/worldcities-api/internal/repository/contract"
	"github.com/worldcities/worldcities-api/internal/repository/postgres"
	"github.com/worldcities/worldcities-api/internal/storage"
)

var (
	db     *postgres.DB
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	cfg, ok := configFromEnv()
	if !ok {
		fmt.Println("[contract] APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	ctx := context.Background()
	logger := zerolog.Nop()
	pool, err := postgres.NewPool(ctx, cfg, &logger)
	if err != nil {
		fmt.Println("[contract] pool error:", err)
		os.Exit(1)
	}
	db = postgres.New(pool)
	if err := storage.Migrate(ctx, db); err != nil {
		fmt.Println("[contract] migrate error:", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = db.Close()
	os.Exit(code)
}

func configFromEnv() (config.PostgresConfig, bool) {
	port, _ := strconv.Atoi(firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432"))
	cfg := config.PostgresConfig{
		Host:     firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost"),
		Port:     port,
		User:     firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER")),
		Password: firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD")),
		DBName:   firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME")),
		SSLMode:  firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), "disable"),
	}
	return cfg, cfg.User != "" && cfg.Password != "" && cfg.DBName != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	if _, err := db.Exec(context.Background(), "TRUNCATE TABLE cities, countries RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
}

func makeRepos(t *testing.T) (contract.Repos, func()) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
	truncateAll(t)
	s := storage.New(db)
	return contract.Repos{
		Countries: s.Countries,
		Cities:    s.Cities,
		Tx:        s.Tx,
		Pinger:    s.Pinger,
	}, func() { truncateAll(t) }
}

func TestRepositories_PostgresContract(t *testing.T) {
	contract.RunAll(t, makeRepos)
}

func TestDSN_EscapesCredentials(t *testing.T) {
	got := postgres.DSN(config.PostgresConfig{Host: "db", Port: 5432, User: "u@x", Password: "p/ss", DBName: "world", SSLMode: "disable"})
	want := "postgres://u%40x:p%2Fss@db:5432/world?sslmode=disable"
	if got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
