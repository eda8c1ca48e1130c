// Package testutil provides integration test helpers backed by containers.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/config"
	"github.com/cory-johannsen/starcase/internal/storage/postgres"
)

// shared is the one migrated database container per test binary. The
// testcontainers reaper removes it when the binary exits.
var shared struct {
	once sync.Once
	pool *postgres.Pool
	cfg  config.DatabaseConfig
	err  error
}

// NewPool returns a pool on a migrated PostgreSQL container, starting it on
// first use. Tests sharing the container must use distinct player ids.
//
// Precondition: Docker must be available; skipped with -short.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	shared.once.Do(func() {
		start := time.Now()
		shared.pool, shared.cfg, shared.err = startPostgres(context.Background())
		if shared.err == nil {
			shared.err = migrateUp(shared.cfg)
		}
		t.Logf("postgres ready [%s]", time.Since(start))
	})
	if shared.err != nil {
		t.Fatalf("postgres container: %v", shared.err)
	}
	return shared.pool.DB()
}

func startPostgres(ctx context.Context) (*postgres.Pool, config.DatabaseConfig, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "starcase",
			"POSTGRES_PASSWORD": "starcase",
			"POSTGRES_DB":       "starcase_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("starting container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, config.DatabaseConfig{}, fmt.Errorf("container port: %w", err)
	}
	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "starcase",
		Password:        "starcase",
		Name:            "starcase_test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	pool, err := postgres.NewPool(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, cfg, err
	}
	return pool, cfg, nil
}

// migrateUp applies the repository's migrations directory.
func migrateUp(cfg config.DatabaseConfig) error {
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
