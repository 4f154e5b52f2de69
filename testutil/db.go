// Package testutil provides shared helpers for the Postgres integration
// tests. Every helper skips the calling test when TEST_DATABASE_URL is unset,
// so the unit suite needs no database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/belatedly/migrations"
)

// EnvDSN names the variable holding the test database URL.
const EnvDSN = "TEST_DATABASE_URL"

// DSN returns the test database URL or skips t.
func DSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skip(EnvDSN + " not set; skipping integration test")
	}
	return dsn
}

// NewTx begins a transaction on a fresh pool and rolls it back when the test
// finishes, so each test sees only its own journal rows.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, DSN(t))
	if err != nil {
		t.Fatalf("testutil.NewTx: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a database/sql handle on the test database, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := openSQL(DSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewProvider returns a goose provider over the embedded migrations.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
}

// MigrateUp applies every pending migration to the database at dsn. It is
// meant for TestMain, where no *testing.T exists.
func MigrateUp(ctx context.Context, dsn string) error {
	db, err := openSQL(dsn)
	if err != nil {
		return fmt.Errorf("testutil.MigrateUp: %w", err)
	}
	defer db.Close()

	provider, err := NewProvider(db)
	if err != nil {
		return fmt.Errorf("testutil.MigrateUp: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("testutil.MigrateUp: %w", err)
	}
	return nil
}

func openSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
