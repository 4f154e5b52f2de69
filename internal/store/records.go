// Package store holds the in-memory state containers: the Records store of
// confirmed date records and the Staging buffer of import candidates.
// Both are safe for concurrent use and never perform I/O.
package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
)

// Records is a normalized collection of DateRecords keyed by ID.
//
// Selection is kept per record. Edit mode is a single optional slot, so at
// most one record is in edit mode at any time.
type Records struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	byID    map[uuid.UUID]*domain.DateRecord
	editing uuid.UUID
}

// NewRecords returns an empty Records store.
func NewRecords() *Records {
	return &Records{byID: make(map[uuid.UUID]*domain.DateRecord)}
}

// Add inserts r. The store never holds two records with the same ID, so an
// existing ID is rejected with domain.ErrConflict. Editing on r is ignored.
func (s *Records) Add(r domain.DateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return fmt.Errorf("store.Records.Add: id %s: %w", r.ID, domain.ErrConflict)
	}
	r.Editing = false
	s.byID[r.ID] = &r
	s.order = append(s.order, r.ID)
	return nil
}

// Remove deletes the record with id. It reports whether a record was removed.
func (s *Records) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.editing == id {
		s.editing = uuid.Nil
	}
	return true
}

// Update merges the set fields of u into the record with id and returns the
// result. An unknown id is a no-op and reports false.
func (s *Records) Update(id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return domain.DateRecord{}, false
	}
	*r = u.Apply(*r)
	return s.view(r), true
}

// SetSelected sets the selection flag of one record.
func (s *Records) SetSelected(id uuid.UUID, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.Selected = selected
	return true
}

// ToggleSelected flips the selection flag of one record.
func (s *Records) ToggleSelected(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.Selected = !r.Selected
	return true
}

// SetAllSelected sets the selection flag of every record. It is idempotent.
func (s *Records) SetAllSelected(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.byID {
		r.Selected = selected
	}
}

// ToggleAll deselects every record when all are selected and selects every
// record otherwise. It looks only at the aggregate, so a mixed selection
// becomes a full one.
func (s *Records) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := !s.allSelectedLocked()
	for _, r := range s.byID {
		r.Selected = target
	}
}

// ToggleEditing puts the record with id in edit mode, taking the slot from
// any other record, or leaves edit mode if id already holds it.
func (s *Records) ToggleEditing(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	if s.editing == id {
		s.editing = uuid.Nil
	} else {
		s.editing = id
	}
	return true
}

// StopEditing leaves edit mode if id holds the slot.
func (s *Records) StopEditing(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing == id {
		s.editing = uuid.Nil
	}
}

// EditingID returns the record currently in edit mode, if any.
func (s *Records) EditingID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing, s.editing != uuid.Nil
}

// All returns a snapshot of every record in insertion order.
func (s *Records) All() []domain.DateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DateRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.view(s.byID[id]))
	}
	return out
}

// ByID returns the record with id.
func (s *Records) ByID(id uuid.UUID) (domain.DateRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return domain.DateRecord{}, false
	}
	return s.view(r), true
}

// Selected returns the selected records in insertion order.
func (s *Records) Selected() []domain.DateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DateRecord
	for _, id := range s.order {
		if r := s.byID[id]; r.Selected {
			out = append(out, s.view(r))
		}
	}
	return out
}

// AnySelected reports whether at least one record is selected.
func (s *Records) AnySelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byID {
		if r.Selected {
			return true
		}
	}
	return false
}

// AllSelected reports whether the store is non-empty and every record is
// selected.
func (s *Records) AllSelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allSelectedLocked()
}

// HasName reports whether a record with exactly this name is held.
func (s *Records) HasName(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byID {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (s *Records) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Replace swaps the whole content for records, typically the output of a
// reconcile pass. Records with duplicate IDs after the first are dropped.
// The edit slot survives if its record is still present.
func (s *Records) Replace(records []domain.DateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[uuid.UUID]*domain.DateRecord, len(records))
	s.order = s.order[:0]
	for _, r := range records {
		if _, dup := s.byID[r.ID]; dup {
			continue
		}
		r.Editing = false
		s.byID[r.ID] = &r
		s.order = append(s.order, r.ID)
	}
	if _, ok := s.byID[s.editing]; !ok {
		s.editing = uuid.Nil
	}
}

func (s *Records) allSelectedLocked() bool {
	if len(s.byID) == 0 {
		return false
	}
	for _, r := range s.byID {
		if !r.Selected {
			return false
		}
	}
	return true
}

// view copies r and fills in the derived Editing flag.
func (s *Records) view(r *domain.DateRecord) domain.DateRecord {
	out := *r
	out.Editing = s.editing != uuid.Nil && s.editing == r.ID
	return out
}
