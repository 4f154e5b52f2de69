package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/belatedly/internal/domain"
)

// JournalRepo persists the outcome of remote synchronisation calls.
type JournalRepo interface {
	// Append stores e and returns it with ID and CreatedAt populated.
	Append(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error)

	// List returns one page of entries, newest first, and the total count.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error)
}

// pgJournalRepo is the Postgres implementation of JournalRepo.
type pgJournalRepo struct {
	db db
}

// NewJournalRepo constructs a JournalRepo backed by the provided db connection.
func NewJournalRepo(db db) JournalRepo {
	return &pgJournalRepo{db: db}
}

// Append inserts one entry. A nil RecordID is stored as NULL.
func (r *pgJournalRepo) Append(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	const q = `
		INSERT INTO sync_journal (op, record_id, external_id, name, error)
		VALUES (@op, @record_id, @external_id, @name, @error)
		RETURNING id, op, record_id, external_id, name, error, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"op":          string(e.Op),
		"record_id":   nullableUUID(e.RecordID),
		"external_id": e.ExternalID,
		"name":        e.Name,
		"error":       e.Error,
	})
	got, err := scanPgEntry(row)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("repo.JournalRepo.Append: %w", err)
	}
	return got, nil
}

// List returns entries ordered by created_at then id, newest first.
// COUNT(*) OVER() carries the total on every row so one query serves both.
func (r *pgJournalRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error) {
	const q = `
		SELECT id, op, record_id, external_id, name, error, created_at, COUNT(*) OVER() AS total
		FROM sync_journal
		ORDER BY created_at DESC, id DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.JournalRepo.List: %w", err)
	}
	defer rows.Close()

	var total int64
	entries := []domain.JournalEntry{}
	for rows.Next() {
		var (
			e  domain.JournalEntry
			id pgtype.UUID
			op string
		)
		if err := rows.Scan(&e.ID, &op, &id, &e.ExternalID, &e.Name, &e.Error, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("repo.JournalRepo.List: scan: %w", err)
		}
		e.Op = domain.JournalOp(op)
		if id.Valid {
			e.RecordID = uuid.UUID(id.Bytes)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.JournalRepo.List: rows: %w", err)
	}

	// A page past the end has no rows to carry the window total.
	if len(entries) == 0 && p.Offset() > 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sync_journal`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("repo.JournalRepo.List: count: %w", err)
		}
	}
	return entries, total, nil
}

func scanPgEntry(s scanner) (domain.JournalEntry, error) {
	var (
		e  domain.JournalEntry
		id pgtype.UUID
		op string
	)
	if err := s.Scan(&e.ID, &op, &id, &e.ExternalID, &e.Name, &e.Error, &e.CreatedAt); err != nil {
		return domain.JournalEntry{}, err
	}
	e.Op = domain.JournalOp(op)
	if id.Valid {
		e.RecordID = uuid.UUID(id.Bytes)
	}
	return e, nil
}

func nullableUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: [16]byte(id), Valid: true}
}
