package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/importer"
	"github.com/pkordes/belatedly/internal/merge"
	"github.com/pkordes/belatedly/internal/store"
)

// ImportService reads import files into the staging buffer and commits
// selected drafts through the RecordService.
type ImportService struct {
	records *RecordService
	staging *store.Staging
	session *SessionService
	maxRows int
	opts    Options

	// commitMu serialises commits so two overlapping requests cannot both
	// see the same draft as unique.
	commitMu sync.Mutex
}

// NewImportService constructs an ImportService. maxRows <= 0 selects
// importer.DefaultMaxRows.
func NewImportService(records *RecordService, staging *store.Staging, session *SessionService, maxRows int, opts Options) *ImportService {
	return &ImportService{
		records: records,
		staging: staging,
		session: session,
		maxRows: maxRows,
		opts:    opts.withDefaults(),
	}
}

// Ingest parses the file and stages the candidates the dedup policy admits.
// The file type is taken from filename. It returns how many drafts were staged.
func (s *ImportService) Ingest(ctx context.Context, filename string, r io.Reader) (int, error) {
	rows, err := importer.Rows(filename, r)
	if err != nil {
		return 0, s.fail(fmt.Errorf("service.ImportService.Ingest: %w", err))
	}
	drafts, err := importer.Drafts(rows, s.maxRows, s.records.Now())
	if err != nil {
		return 0, s.fail(fmt.Errorf("service.ImportService.Ingest: %w", err))
	}
	n := s.staging.Ingest(drafts)
	s.opts.Logger.InfoContext(ctx, "import file staged", "file", filename, "rows", len(drafts), "staged", n)
	s.opts.notify("import.staged", n)
	return n, nil
}

// Commit creates a record for every selected draft whose name is not held
// yet. Created drafts leave staging. Duplicates and failures stay there so
// they can be fixed or discarded. The returned error joins every failure.
func (s *ImportService) Commit(ctx context.Context) (domain.ImportResult, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	unique, duplicates := merge.Importable(s.staging.Selected(), s.records.HasName)
	res := domain.ImportResult{Skipped: len(duplicates)}
	if len(unique) == 0 {
		return res, nil
	}

	var errs []error
	for i, d := range unique {
		if err := ctx.Err(); err != nil {
			res.Failed += len(unique) - i
			errs = append(errs, err)
			break
		}
		// The name may have been taken by a manual create since the snapshot.
		if s.records.HasName(d.Name) {
			res.Skipped++
			continue
		}
		if _, err := s.records.Create(ctx, d.Name, d.Date); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
			continue
		}
		s.staging.Remove(d.ID)
		res.Imported++
	}

	err := errors.Join(errs...)
	e := domain.JournalEntry{
		Op:   domain.OpImport,
		Name: fmt.Sprintf("imported %d, skipped %d, failed %d", res.Imported, res.Skipped, res.Failed),
	}
	if err != nil {
		e.Error = err.Error()
	}
	s.opts.record(ctx, e)
	s.opts.notify("import.committed", res)
	if err != nil {
		return res, fmt.Errorf("service.ImportService.Commit: %w", err)
	}
	return res, nil
}

// List returns every staged draft in staging order.
func (s *ImportService) List() []domain.DraftRecord {
	return s.staging.All()
}

// AnySelected reports whether at least one draft is selected.
func (s *ImportService) AnySelected() bool { return s.staging.AnySelected() }

// AllSelected reports whether every draft is selected.
func (s *ImportService) AllSelected() bool { return s.staging.AllSelected() }

// ToggleSelected flips the selection of one draft.
func (s *ImportService) ToggleSelected(id uuid.UUID) error {
	if !s.staging.ToggleSelected(id) {
		return fmt.Errorf("service.ImportService.ToggleSelected: %w", domain.ErrNotFound)
	}
	return nil
}

// SetAllSelected selects or deselects every draft.
func (s *ImportService) SetAllSelected(selected bool) { s.staging.SetAllSelected(selected) }

// ToggleAll deselects everything when all drafts are selected and selects
// everything otherwise.
func (s *ImportService) ToggleAll() { s.staging.ToggleAll() }

// Remove discards one draft.
func (s *ImportService) Remove(id uuid.UUID) error {
	if !s.staging.Remove(id) {
		return fmt.Errorf("service.ImportService.Remove: %w", domain.ErrNotFound)
	}
	return nil
}

// Clear discards every draft.
func (s *ImportService) Clear() { s.staging.Clear() }

func (s *ImportService) fail(err error) error {
	s.session.Fail(err)
	return err
}
