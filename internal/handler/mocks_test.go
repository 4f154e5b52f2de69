package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/handler"
)

// fixedNow pins "today" for derived fields: 10 March 2026.
var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// mockRecords is a test double for handler.RecordServicer.
// Set only the method fields your test needs. The read-only selectors fall
// back to the records field.
type mockRecords struct {
	records []domain.DateRecord

	get            func(id uuid.UUID) (domain.DateRecord, error)
	create         func(ctx context.Context, name string, date time.Time) (domain.DateRecord, error)
	createOn       func(ctx context.Context, name string, month time.Month, day int) (domain.DateRecord, error)
	update         func(ctx context.Context, id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, error)
	delete         func(ctx context.Context, id uuid.UUID) error
	deleteSelected func(ctx context.Context) (domain.BulkResult, error)
	refresh        func(ctx context.Context) (int, error)
	setSelected    func(id uuid.UUID, selected bool) error
	setAll         func(selected bool)
	toggleAll      func()
	toggleEditing  func(id uuid.UUID) (domain.DateRecord, error)
}

func (m *mockRecords) Now() time.Time            { return fixedNow }
func (m *mockRecords) List() []domain.DateRecord { return m.records }
func (m *mockRecords) Upcoming() []domain.Occurrence {
	return domain.Upcoming(m.records, fixedNow)
}
func (m *mockRecords) Get(id uuid.UUID) (domain.DateRecord, error) { return m.get(id) }
func (m *mockRecords) Create(ctx context.Context, name string, date time.Time) (domain.DateRecord, error) {
	return m.create(ctx, name, date)
}
func (m *mockRecords) CreateOn(ctx context.Context, name string, month time.Month, day int) (domain.DateRecord, error) {
	return m.createOn(ctx, name, month, day)
}
func (m *mockRecords) Update(ctx context.Context, id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, error) {
	return m.update(ctx, id, u)
}
func (m *mockRecords) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }
func (m *mockRecords) DeleteSelected(ctx context.Context) (domain.BulkResult, error) {
	return m.deleteSelected(ctx)
}
func (m *mockRecords) Refresh(ctx context.Context) (int, error)   { return m.refresh(ctx) }
func (m *mockRecords) SetSelected(id uuid.UUID, sel bool) error   { return m.setSelected(id, sel) }
func (m *mockRecords) SetAllSelected(sel bool)                    { m.setAll(sel) }
func (m *mockRecords) ToggleAll()                                 { m.toggleAll() }
func (m *mockRecords) ToggleEditing(id uuid.UUID) (domain.DateRecord, error) {
	return m.toggleEditing(id)
}
func (m *mockRecords) AnySelected() bool {
	for _, r := range m.records {
		if r.Selected {
			return true
		}
	}
	return false
}
func (m *mockRecords) AllSelected() bool {
	for _, r := range m.records {
		if !r.Selected {
			return false
		}
	}
	return len(m.records) > 0
}

// compile-time check: mockRecords must satisfy handler.RecordServicer.
var _ handler.RecordServicer = (*mockRecords)(nil)

// mockImports is a test double for handler.ImportServicer.
type mockImports struct {
	drafts []domain.DraftRecord

	ingest func(ctx context.Context, filename string, r io.Reader) (int, error)
	commit func(ctx context.Context) (domain.ImportResult, error)
	toggle func(id uuid.UUID) error
	setAll func(selected bool)
	remove func(id uuid.UUID) error
	clear  func()
}

func (m *mockImports) Ingest(ctx context.Context, filename string, r io.Reader) (int, error) {
	return m.ingest(ctx, filename, r)
}
func (m *mockImports) Commit(ctx context.Context) (domain.ImportResult, error) { return m.commit(ctx) }
func (m *mockImports) List() []domain.DraftRecord                            { return m.drafts }
func (m *mockImports) ToggleSelected(id uuid.UUID) error                     { return m.toggle(id) }
func (m *mockImports) SetAllSelected(sel bool)                               { m.setAll(sel) }
func (m *mockImports) ToggleAll()                                            {}
func (m *mockImports) Remove(id uuid.UUID) error                             { return m.remove(id) }
func (m *mockImports) Clear()                                                { m.clear() }
func (m *mockImports) AnySelected() bool                                     { return false }
func (m *mockImports) AllSelected() bool                                     { return false }

var _ handler.ImportServicer = (*mockImports)(nil)

// mockSession is a test double for handler.SessionServicer.
type mockSession struct {
	state  domain.SessionState
	login  func(ctx context.Context) error
	logout func()
}

func (m *mockSession) Login(ctx context.Context) error { return m.login(ctx) }
func (m *mockSession) Logout()                         { m.logout() }
func (m *mockSession) State() domain.SessionState      { return m.state }

var _ handler.SessionServicer = (*mockSession)(nil)

// mockExport is a test double for handler.ExportServicer.
type mockExport struct {
	rows []domain.ExportRow
}

func (m *mockExport) Export() []domain.ExportRow { return m.rows }

var _ handler.ExportServicer = (*mockExport)(nil)

// mockJournal is a test double for handler.JournalServicer.
type mockJournal struct {
	list func(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error)
}

func (m *mockJournal) List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error) {
	return m.list(ctx, p)
}

var _ handler.JournalServicer = (*mockJournal)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given deps into its chi router,
// filling unset services with empty mocks. This mirrors how main.go wires it.
func newHTTPHandler(d handler.Deps) http.Handler {
	if d.Records == nil {
		d.Records = &mockRecords{}
	}
	if d.Imports == nil {
		d.Imports = &mockImports{}
	}
	if d.Session == nil {
		d.Session = &mockSession{}
	}
	if d.Export == nil {
		d.Export = &mockExport{}
	}
	return handler.NewServer(d).Routes()
}

func decodeBody[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recordFixture(name string, date time.Time) domain.DateRecord {
	return domain.DateRecord{ID: uuid.New(), Name: name, Date: date, ExternalID: "evt-" + name}
}
