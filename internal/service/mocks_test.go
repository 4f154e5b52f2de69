package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/auth"
	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/remote"
	"github.com/pkordes/belatedly/internal/repo"
	"github.com/pkordes/belatedly/internal/service"
	"github.com/pkordes/belatedly/internal/store"
)

// mockRemote is a hand-written test double for remote.Service.
// Each method is a function field; set only the ones your test needs.
// Calling an unset method panics, which fails the test loudly.
type mockRemote struct {
	listContainers  func(ctx context.Context) ([]remote.Container, error)
	createContainer func(ctx context.Context, name string) (remote.Container, error)
	listItems       func(ctx context.Context, containerID string) ([]remote.Item, error)
	createItem      func(ctx context.Context, containerID string, ev remote.Event) (string, error)
	updateItem      func(ctx context.Context, containerID, itemID string, ev remote.Event) error
	deleteItem      func(ctx context.Context, containerID, itemID string) error
}

func (m *mockRemote) ListContainers(ctx context.Context) ([]remote.Container, error) {
	return m.listContainers(ctx)
}
func (m *mockRemote) CreateContainer(ctx context.Context, name string) (remote.Container, error) {
	return m.createContainer(ctx, name)
}
func (m *mockRemote) ListItems(ctx context.Context, containerID string) ([]remote.Item, error) {
	return m.listItems(ctx, containerID)
}
func (m *mockRemote) CreateItem(ctx context.Context, containerID string, ev remote.Event) (string, error) {
	return m.createItem(ctx, containerID, ev)
}
func (m *mockRemote) UpdateItem(ctx context.Context, containerID, itemID string, ev remote.Event) error {
	return m.updateItem(ctx, containerID, itemID, ev)
}
func (m *mockRemote) DeleteItem(ctx context.Context, containerID, itemID string) error {
	return m.deleteItem(ctx, containerID, itemID)
}

// compile-time check: mockRemote must satisfy remote.Service.
var _ remote.Service = (*mockRemote)(nil)

// mockTokens is a test double for auth.Provider.
type mockTokens struct {
	acquire func(ctx context.Context) (string, error)
}

func (m *mockTokens) AcquireToken(ctx context.Context) (string, error) {
	if m.acquire == nil {
		return "token", nil
	}
	return m.acquire(ctx)
}

var _ auth.Provider = (*mockTokens)(nil)

// mockJournal records appended entries in memory.
type mockJournal struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	err     error
}

func (m *mockJournal) Append(_ context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.JournalEntry{}, m.err
	}
	e.ID = int64(len(m.entries) + 1)
	e.CreatedAt = fixedNow
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *mockJournal) List(_ context.Context, _ domain.PaginationParams) ([]domain.JournalEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, int64(len(m.entries)), nil
}

func (m *mockJournal) all() []domain.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.JournalEntry(nil), m.entries...)
}

var _ repo.JournalRepo = (*mockJournal)(nil)

// mockNotifier collects notification kinds.
type mockNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (m *mockNotifier) Notify(kind string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
}

func (m *mockNotifier) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.kinds...)
}

var _ service.Notifier = (*mockNotifier)(nil)

// ---- fixture ---------------------------------------------------------------

// fixedNow is the pinned clock for every service test: 10 March 2026.
var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	records *store.Records
	remote  *mockRemote
	tokens  *mockTokens
	session *service.SessionService
	journal *mockJournal
	notes   *mockNotifier
	svc     *service.RecordService
}

func newFixture(t *testing.T, m *mockRemote) *fixture {
	t.Helper()
	f := &fixture{
		records: store.NewRecords(),
		remote:  m,
		tokens:  &mockTokens{},
		journal: &mockJournal{},
		notes:   &mockNotifier{},
	}
	f.session = service.NewSessionService(f.tokens, nil, "UTC")
	f.svc = service.NewRecordService(
		f.records,
		m,
		f.tokens,
		service.NewContainerResolver(m, "Birthdays"),
		f.session,
		service.Options{
			TimeZone: "UTC",
			Journal:  f.journal,
			Notifier: f.notes,
			Now:      func() time.Time { return fixedNow },
		},
	)
	return f
}

// calendar returns a listContainers func reporting the Birthdays calendar
// under id.
func calendar(id string) func(context.Context) ([]remote.Container, error) {
	return func(context.Context) ([]remote.Container, error) {
		return []remote.Container{{ID: "other", Name: "Work"}, {ID: id, Name: "Birthdays"}}, nil
	}
}

func noCalendar(context.Context) ([]remote.Container, error) {
	return []remote.Container{{ID: "other", Name: "Work"}}, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seed adds a record straight to the store.
func (f *fixture) seed(t *testing.T, name, externalID string, date time.Time) domain.DateRecord {
	t.Helper()
	r := domain.DateRecord{ID: uuid.New(), Name: name, Date: date, ExternalID: externalID}
	if err := f.records.Add(r); err != nil {
		t.Fatalf("seed %q: %v", name, err)
	}
	return r
}
