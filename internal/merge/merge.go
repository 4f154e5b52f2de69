// Package merge holds the pure policy functions that decide which import
// candidates are admitted and how a remote listing is folded into local state.
// Nothing here touches the network or mutates its inputs.
package merge

import (
	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
)

// NameExists reports whether a record with exactly this name is already held.
type NameExists func(name string) bool

// FilterCandidates returns the candidates admitted into the staging buffer.
// A candidate is admitted iff no earlier candidate in the batch has the same
// name and exists reports false for it. Names are compared byte for byte,
// so "alex smith" and "Alex Smith " are distinct.
func FilterCandidates(candidates []domain.DraftRecord, exists NameExists) []domain.DraftRecord {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.DraftRecord, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		if exists != nil && exists(c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Importable splits selected drafts into those whose name is not yet held
// (unique) and those that collide with an existing record (duplicates).
// Order is preserved in both slices.
func Importable(selected []domain.DraftRecord, exists NameExists) (unique, duplicates []domain.DraftRecord) {
	for _, d := range selected {
		if exists != nil && exists(d.Name) {
			duplicates = append(duplicates, d)
			continue
		}
		unique = append(unique, d)
	}
	return unique, duplicates
}

// Reconcile folds a complete remote listing into the local records. Remote
// entries carry ExternalID, Name and Date; their other fields are ignored.
//
//   - A local record whose ExternalID appears remotely takes the remote name
//     and date and keeps its local ID and transient flags.
//   - A local record with an ExternalID that no longer appears remotely was
//     deleted elsewhere and is dropped.
//   - A local record without an ExternalID is kept as is.
//   - A remote item matching no local record becomes a new record with an ID
//     from newID.
//
// Local order is kept; new records follow in remote order.
func Reconcile(local []domain.DateRecord, remote []domain.DateRecord, newID func() uuid.UUID) []domain.DateRecord {
	byExternal := make(map[string]domain.DateRecord, len(remote))
	order := make([]string, 0, len(remote))
	for _, r := range remote {
		if r.ExternalID == "" {
			continue
		}
		if _, dup := byExternal[r.ExternalID]; !dup {
			order = append(order, r.ExternalID)
		}
		byExternal[r.ExternalID] = r
	}

	out := make([]domain.DateRecord, 0, len(local)+len(remote))
	matched := make(map[string]struct{}, len(local))
	for _, l := range local {
		if !l.Synced() {
			out = append(out, l)
			continue
		}
		r, ok := byExternal[l.ExternalID]
		if !ok {
			continue
		}
		matched[l.ExternalID] = struct{}{}
		l.Name = r.Name
		l.Date = r.Date
		out = append(out, l)
	}

	for _, ext := range order {
		if _, ok := matched[ext]; ok {
			continue
		}
		r := byExternal[ext]
		r.ID = newID()
		r.Selected = false
		r.Editing = false
		out = append(out, r)
	}
	return out
}
