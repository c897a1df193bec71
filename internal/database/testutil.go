package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

const testDatabaseEnv = "TEST_DATABASE_URL"

// TestDB returns a fresh connection pool for integration tests.
// Skips the test if TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv(testDatabaseEnv)
	if dbURL == "" {
		t.Skip(testDatabaseEnv + " not set, skipping integration test")
	}

	pool, err := Connect(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// TestPool returns a pool shared by every test of the process, migrated once.
// Skips the test if TEST_DATABASE_URL is not set.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv(testDatabaseEnv)
	if dbURL == "" {
		t.Skip(testDatabaseEnv + " not set, skipping integration test")
	}

	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		sharedPool, sharedPoolErr = Connect(ctx, dbURL)
		if sharedPoolErr != nil {
			return
		}
		sharedPoolErr = RunMigrations(ctx, sharedPool)
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", sharedPoolErr)
	}

	return sharedPool
}

// TestTx returns a transaction on the shared pool that is rolled back when
// the test ends. Repositories accept PGXDB, so they run unchanged inside it:
//
//	records := repository.NewRecordRepository(database.TestTx(t))
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
