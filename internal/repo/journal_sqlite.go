package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/pkordes/belatedly/internal/domain"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS sync_journal (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		op          TEXT NOT NULL,
		record_id   TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sync_journal_created_at_idx ON sync_journal (created_at DESC, id DESC);`

// sqliteTime has a fixed width so created_at sorts correctly as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteJournal is a JournalRepo on a local SQLite file, for single-user
// deployments without Postgres.
type SQLiteJournal struct {
	conn *sql.DB
}

// compile-time check
var _ JournalRepo = (*SQLiteJournal)(nil)

// OpenSQLiteJournal opens or creates the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway journal.
func OpenSQLiteJournal(ctx context.Context, path string) (*SQLiteJournal, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLiteJournal: open: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises
	// writes, which SQLite needs anyway.
	conn.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("repo.OpenSQLiteJournal: set wal mode: %w", err)
		}
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("repo.OpenSQLiteJournal: migrate: %w", err)
	}
	return &SQLiteJournal{conn: conn}, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.conn.Close()
}

// Append inserts one entry. Timestamps are stored as fixed-width UTC text.
func (j *SQLiteJournal) Append(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		INSERT INTO sync_journal (op, record_id, external_id, name, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, op, record_id, external_id, name, error, created_at`

	recordID := ""
	if e.RecordID != uuid.Nil {
		recordID = e.RecordID.String()
	}
	row := j.conn.QueryRowContext(ctx, q,
		string(e.Op), recordID, e.ExternalID, e.Name, e.Error,
		time.Now().UTC().Format(sqliteTime),
	)
	got, err := scanSQLiteEntry(row)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.SQLiteJournal.Append: %w", err)
	}
	return got, nil
}

// List returns entries newest first and the total count.
func (j *SQLiteJournal) List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error) {
	var total int64
	if err := j.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_journal`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.SQLiteJournal.List: count: %w", err)
	}

	const q = `
		SELECT id, op, record_id, external_id, name, error, created_at
		FROM sync_journal
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := j.conn.QueryContext(ctx, q, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("repo.SQLiteJournal.List: %w", err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.SQLiteJournal.List: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.SQLiteJournal.List: rows: %w", err)
	}
	return entries, total, nil
}

func scanSQLiteEntry(s scanner) (domain.JournalEntry, error) {
	var (
		e         domain.JournalEntry
		op        string
		recordID  string
		createdAt string
	)
	if err := s.Scan(&e.ID, &op, &recordID, &e.ExternalID, &e.Name, &e.Error, &createdAt); err != nil {
		return domain.JournalEntry{}, err
	}
	e.Op = domain.JournalOp(op)
	if recordID != "" {
		id, err := uuid.Parse(recordID)
		if err != nil {
			return domain.JournalEntry{}, fmt.Errorf("record_id: %w", err)
		}
		e.RecordID = id
	}
	t, err := time.Parse(sqliteTime, createdAt)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}
