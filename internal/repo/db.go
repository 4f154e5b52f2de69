// Package repo contains the database access logic for the sync journal.
// The journal interface has a Postgres and a SQLite implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
