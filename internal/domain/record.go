// Package domain contains the core data types for the Belatedly backend.
// This package has no dependencies on other internal packages and is imported
// by every other internal package (store, merge, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateRecord is a recurring annual date (a birthday or an anniversary).
// Only the month and day of Date feed recurrence; the year is kept as entered.
//
// ExternalID is empty until the external calendar service has confirmed the
// record. Once set it is never cleared; the whole record is deleted instead.
type DateRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	ExternalID string    `json:"external_id,omitempty"`

	// Transient UI state. Never sent to the external service.
	Selected bool `json:"selected"`
	Editing  bool `json:"editing"`
}

// Synced reports whether the record has a confirmed remote counterpart.
func (r DateRecord) Synced() bool {
	return r.ExternalID != ""
}

// DraftRecord is an import candidate waiting in the staging buffer.
// Date is the zero time when the source value could not be parsed.
type DraftRecord struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Selected bool      `json:"selected"`
}

// RecordUpdate carries a sparse set of field changes for a DateRecord.
// Nil fields are left untouched.
type RecordUpdate struct {
	Name *string
	Date *time.Time
}

// Empty reports whether the update changes nothing.
func (u RecordUpdate) Empty() bool {
	return u.Name == nil && u.Date == nil
}

// Apply returns r with the set fields of u merged in.
func (u RecordUpdate) Apply(r DateRecord) DateRecord {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Date != nil {
		r.Date = *u.Date
	}
	return r
}

// BulkResult summarises a sequential bulk delete.
type BulkResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// ImportResult summarises committing selected drafts from the staging buffer.
// Skipped counts drafts left in staging because a record with the same name
// already exists.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
