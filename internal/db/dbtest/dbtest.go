// Package dbtest provides a migrated Postgres pool for integration tests.
//
// TEST_DB_DSN selects an existing database. Without it a throwaway Postgres
// container is started through testcontainers; tests are skipped in -short
// mode or when no container runtime is available. Packages share one
// database under TEST_DB_DSN, so run those with -p 1.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"pharmacy-pos/internal/migrate"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// Pool returns a pool on a freshly migrated and truncated database.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		containerOnce.Do(func() {
			containerDSN, containerErr = startPostgres(ctx)
		})
		if containerErr != nil {
			t.Skipf("postgres unavailable: %v", containerErr)
		}
		dsn = containerDSN
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE notifications, stock_adjustments, sale_items, sales, products, categories, suppliers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

func startPostgres(ctx context.Context) (dsn string, err error) {
	defer func() {
		// testcontainers panics when no docker host can be resolved.
		if r := recover(); r != nil {
			err = fmt.Errorf("start container: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "pharmacy",
			"POSTGRES_PASSWORD": "pharmacy",
			"POSTGRES_DB":       "pharmacy_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgres://pharmacy:pharmacy@%s:%s/pharmacy_test?sslmode=disable", host, port.Port()), nil
}
