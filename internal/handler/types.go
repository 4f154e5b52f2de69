package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/belatedly/internal/domain"
)

// Record is the JSON form of a date record with its derived values.
type Record struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Date           openapi_types.Date `json:"date"`
	ExternalID     *string            `json:"external_id,omitempty"`
	Synced         bool               `json:"synced"`
	Selected       bool               `json:"selected"`
	Editing        bool               `json:"editing"`
	NextOccurrence openapi_types.Date `json:"next_occurrence"`
	DaysUntil      int                `json:"days_until"`
	DaysUntilLabel string             `json:"days_until_label"`
}

// RecordList is the body of GET /records.
type RecordList struct {
	Data        []Record `json:"data"`
	AnySelected bool     `json:"any_selected"`
	AllSelected bool     `json:"all_selected"`
}

// CreateRecordRequest is the body of POST /records. Either Date, or Month
// and Day, must be set.
type CreateRecordRequest struct {
	Name  string              `json:"name"`
	Date  *openapi_types.Date `json:"date,omitempty"`
	Month *int                `json:"month,omitempty"`
	Day   *int                `json:"day,omitempty"`
}

// UpdateRecordRequest is the body of PATCH /records/{id}. Absent fields are
// left unchanged.
type UpdateRecordRequest struct {
	Name *string             `json:"name,omitempty"`
	Date *openapi_types.Date `json:"date,omitempty"`
}

// SelectedRequest sets one or all selection flags.
type SelectedRequest struct {
	Selected *bool `json:"selected"`
}

// BulkResponse is the body of POST /records/delete-selected.
type BulkResponse struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// RefreshResponse is the body of POST /records/refresh.
type RefreshResponse struct {
	Count int `json:"count"`
	RecordList
}

// Draft is the JSON form of a staged import candidate. Date is absent when
// the source value could not be read.
type Draft struct {
	ID       uuid.UUID           `json:"id"`
	Name     string              `json:"name"`
	Date     *openapi_types.Date `json:"date,omitempty"`
	Selected bool                `json:"selected"`
}

// DraftList is the body of GET /import.
type DraftList struct {
	Data        []Draft `json:"data"`
	AnySelected bool    `json:"any_selected"`
	AllSelected bool    `json:"all_selected"`
}

// UploadResponse is the body of POST /import.
type UploadResponse struct {
	Staged int `json:"staged"`
	DraftList
}

// ImportResponse is the body of POST /import/commit.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// ExportRow is one row of the JSON export.
type ExportRow struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Date           string `json:"date"`
	NextOccurrence string `json:"next_occurrence"`
	DaysUntil      int    `json:"days_until"`
	ExternalID     string `json:"external_id,omitempty"`
}

// JournalEntry is the JSON form of one sync journal entry.
type JournalEntry struct {
	ID         int64      `json:"id"`
	Op         string     `json:"op"`
	RecordID   *uuid.UUID `json:"record_id,omitempty"`
	ExternalID string     `json:"external_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	OK         bool       `json:"ok"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Pagination describes the page returned.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// JournalPage is the body of GET /journal.
type JournalPage struct {
	Data       []JournalEntry `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// --- mapping helpers --------------------------------------------------------

// recordToResponse converts a domain record and derives its next occurrence.
func recordToResponse(r domain.DateRecord, now time.Time) Record {
	next := domain.NextOccurrence(r.Date, now)
	days := domain.DaysUntil(next, now)
	resp := Record{
		ID:             r.ID,
		Name:           r.Name,
		Date:           openapi_types.Date{Time: r.Date},
		Synced:         r.Synced(),
		Selected:       r.Selected,
		Editing:        r.Editing,
		NextOccurrence: openapi_types.Date{Time: next},
		DaysUntil:      days,
		DaysUntilLabel: domain.DaysUntilLabel(days),
	}
	if r.ExternalID != "" {
		resp.ExternalID = &r.ExternalID
	}
	return resp
}

func draftToResponse(d domain.DraftRecord) Draft {
	resp := Draft{ID: d.ID, Name: d.Name, Selected: d.Selected}
	if !d.Date.IsZero() {
		resp.Date = &openapi_types.Date{Time: d.Date}
	}
	return resp
}

func journalToResponse(e domain.JournalEntry) JournalEntry {
	resp := JournalEntry{
		ID:         e.ID,
		Op:         string(e.Op),
		ExternalID: e.ExternalID,
		Name:       e.Name,
		OK:         e.OK(),
		Error:      e.Error,
		CreatedAt:  e.CreatedAt,
	}
	if e.RecordID != uuid.Nil {
		id := e.RecordID
		resp.RecordID = &id
	}
	return resp
}
