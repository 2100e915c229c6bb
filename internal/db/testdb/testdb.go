// Package testdb provides sqlite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/willemschots/signin/internal/db"
	"github.com/willemschots/signin/internal/db/migrate"
	"github.com/willemschots/signin/migrations"
)

// RunWhile returns an in-memory database with all migrations applied, it's
// closed when the test ends.
func RunWhile(t *testing.T, write bool) *sql.DB {
	t.Helper()

	sqlDB := RunUnmigratedWhile(t, write)
	migrateForTest(t, sqlDB)

	return sqlDB
}

// RunUnmigratedWhile returns an empty in-memory database, it's closed when the test ends.
//
// An in-memory database lives as long as its connection, so the returned pool is
// limited to a single connection and every call returns a separate database.
func RunUnmigratedWhile(t *testing.T, write bool) *sql.DB {
	t.Helper()

	sqlDB, err := db.OpenSQLite(":memory:", write)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	t.Cleanup(func() {
		err := sqlDB.Close()
		if err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return sqlDB
}

// RunPoolsWhile returns migrated write and read pools for a database file in a
// temporary directory, they're closed when the test ends.
func RunPoolsWhile(t *testing.T) *db.Pools {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pools, err := db.OpenPools(ctx, filepath.Join(t.TempDir(), "signin-test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		err := pools.Close()
		if err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	migrateForTest(t, pools.Write)

	return pools
}

func migrateForTest(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := migrate.RunFS(ctx, sqlDB, migrations.FS, migrate.Metadata{})
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}
