package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/merge"
)

// Staging holds import candidates until the user commits or discards them.
// It has its own selection state, independent of the Records store.
type Staging struct {
	mu     sync.RWMutex
	order  []uuid.UUID
	byID   map[uuid.UUID]*domain.DraftRecord
	exists merge.NameExists
}

// NewStaging returns an empty buffer. exists reports names already held by the
// Records store; candidates with those names are never staged.
func NewStaging(exists merge.NameExists) *Staging {
	return &Staging{byID: make(map[uuid.UUID]*domain.DraftRecord), exists: exists}
}

// Ingest applies the deduplication policy and stages the admitted candidates.
// Drafts already staged count as earlier candidates of the batch. Rejected
// candidates are dropped without error. It returns how many were staged.
func (s *Staging) Ingest(candidates []domain.DraftRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]struct{}, len(s.byID))
	for _, d := range s.byID {
		staged[d.Name] = struct{}{}
	}
	admitted := merge.FilterCandidates(candidates, func(name string) bool {
		if _, ok := staged[name]; ok {
			return true
		}
		return s.exists != nil && s.exists(name)
	})

	n := 0
	for _, d := range admitted {
		if _, dup := s.byID[d.ID]; dup || d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d := d
		s.byID[d.ID] = &d
		s.order = append(s.order, d.ID)
		n++
	}
	return n
}

// ToggleSelected flips the selection flag of one draft.
func (s *Staging) ToggleSelected(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return false
	}
	d.Selected = !d.Selected
	return true
}

// SetAllSelected sets the selection flag of every draft. It is idempotent.
func (s *Staging) SetAllSelected(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.byID {
		d.Selected = selected
	}
}

// ToggleAll deselects every draft when all are selected and selects every
// draft otherwise.
func (s *Staging) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := !s.allSelectedLocked()
	for _, d := range s.byID {
		d.Selected = target
	}
}

// Remove drops the draft with id.
func (s *Staging) Remove(id uuid.UUID) bool {
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
	return true
}

// Clear drops every draft.
func (s *Staging) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[uuid.UUID]*domain.DraftRecord)
	s.order = nil
}

// All returns a snapshot of every draft in staging order.
func (s *Staging) All() []domain.DraftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DraftRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Selected returns the selected drafts in staging order.
func (s *Staging) Selected() []domain.DraftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DraftRecord
	for _, id := range s.order {
		if d := s.byID[id]; d.Selected {
			out = append(out, *d)
		}
	}
	return out
}

// AnySelected reports whether at least one draft is selected.
func (s *Staging) AnySelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.byID {
		if d.Selected {
			return true
		}
	}
	return false
}

// AllSelected reports whether the buffer is non-empty and every draft is
// selected.
func (s *Staging) AllSelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allSelectedLocked()
}

// Len returns the number of staged drafts.
func (s *Staging) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Staging) allSelectedLocked() bool {
	if len(s.byID) == 0 {
		return false
	}
	for _, d := range s.byID {
		if !d.Selected {
			return false
		}
	}
	return true
}
