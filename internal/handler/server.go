// Package handler implements the HTTP handlers for the Belatedly API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, record.go, import.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
)

// RecordServicer defines the record operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the store or the external calendar.
type RecordServicer interface {
	Now() time.Time
	List() []domain.DateRecord
	Upcoming() []domain.Occurrence
	Get(id uuid.UUID) (domain.DateRecord, error)
	Create(ctx context.Context, name string, date time.Time) (domain.DateRecord, error)
	CreateOn(ctx context.Context, name string, month time.Month, day int) (domain.DateRecord, error)
	Update(ctx context.Context, id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteSelected(ctx context.Context) (domain.BulkResult, error)
	Refresh(ctx context.Context) (int, error)
	SetSelected(id uuid.UUID, selected bool) error
	SetAllSelected(selected bool)
	ToggleAll()
	ToggleEditing(id uuid.UUID) (domain.DateRecord, error)
	AnySelected() bool
	AllSelected() bool
}

// ImportServicer defines the staging operations the import handlers depend on.
type ImportServicer interface {
	Ingest(ctx context.Context, filename string, r io.Reader) (int, error)
	Commit(ctx context.Context) (domain.ImportResult, error)
	List() []domain.DraftRecord
	ToggleSelected(id uuid.UUID) error
	SetAllSelected(selected bool)
	ToggleAll()
	Remove(id uuid.UUID) error
	Clear()
	AnySelected() bool
	AllSelected() bool
}

// SessionServicer defines the sign-in operations.
type SessionServicer interface {
	Login(ctx context.Context) error
	Logout()
	State() domain.SessionState
}

// ExportServicer builds the flat export.
type ExportServicer interface {
	Export() []domain.ExportRow
}

// JournalServicer reads the sync journal.
type JournalServicer interface {
	List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error)
}

// Deps carries the Server's collaborators. Journal, Changes and OpenAPI are
// optional; their routes are only registered when set.
type Deps struct {
	Records RecordServicer
	Imports ImportServicer
	Session SessionServicer
	Export  ExportServicer
	Journal JournalServicer

	// Changes serves the WebSocket change feed at /ws.
	Changes http.Handler

	// OpenAPI is served verbatim at /openapi.yaml.
	OpenAPI []byte

	// MaxUploadBytes caps an import file. Defaults to 1 MiB.
	MaxUploadBytes int64

	Logger *slog.Logger
}

// Server holds the dependencies of every handler.
type Server struct {
	records   RecordServicer
	imports   ImportServicer
	session   SessionServicer
	export    ExportServicer
	journal   JournalServicer
	changes   http.Handler
	openAPI   []byte
	maxUpload int64
	logger    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 1 << 20
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Server{
		records:   d.Records,
		imports:   d.Imports,
		session:   d.Session,
		export:    d.Export,
		journal:   d.Journal,
		changes:   d.Changes,
		openAPI:   d.OpenAPI,
		maxUpload: d.MaxUploadBytes,
		logger:    d.Logger,
	}
}

// Routes returns the API router. Cross-cutting middleware is applied by the
// caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}
	if s.changes != nil {
		r.Handle("/ws", s.changes)
	}

	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Post("/login", s.Login)
		r.Post("/logout", s.Logout)
	})

	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.ListRecords)
		r.Post("/", s.CreateRecord)
		r.Post("/select-all", s.SelectAllRecords)
		r.Post("/toggle-all", s.ToggleAllRecords)
		r.Post("/delete-selected", s.DeleteSelectedRecords)
		r.Post("/refresh", s.RefreshRecords)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetRecord)
			r.Patch("/", s.UpdateRecord)
			r.Delete("/", s.DeleteRecord)
			r.Put("/selected", s.SetRecordSelected)
			r.Post("/editing", s.ToggleRecordEditing)
		})
	})

	r.Route("/import", func(r chi.Router) {
		r.Get("/", s.ListDrafts)
		r.Post("/", s.UploadImport)
		r.Delete("/", s.ClearDrafts)
		r.Post("/select-all", s.SelectAllDrafts)
		r.Post("/toggle-all", s.ToggleAllDrafts)
		r.Post("/commit", s.CommitImport)
		r.Post("/{id}/toggle", s.ToggleDraft)
		r.Delete("/{id}", s.RemoveDraft)
	})

	r.Get("/export", s.GetExport)
	if s.journal != nil {
		r.Get("/journal", s.ListJournal)
	}
	return r
}
