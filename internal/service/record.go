package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/auth"
	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/merge"
	"github.com/pkordes/belatedly/internal/remote"
	"github.com/pkordes/belatedly/internal/store"
)

// RecordService synchronises the Records store with the external calendar.
//
// Operations that talk to the calendar run one at a time. Selection and edit
// mode changes are local and never wait on them.
type RecordService struct {
	records    *store.Records
	remote     remote.Service
	tokens     auth.Provider
	containers *ContainerResolver
	session    *SessionService
	opts       Options
	loc        *time.Location

	syncMu sync.Mutex
}

// NewRecordService constructs a RecordService. The resolver must target the
// same remote service.
func NewRecordService(
	records *store.Records,
	svc remote.Service,
	tokens auth.Provider,
	containers *ContainerResolver,
	session *SessionService,
	opts Options,
) *RecordService {
	opts = opts.withDefaults()
	return &RecordService{
		records:    records,
		remote:     svc,
		tokens:     tokens,
		containers: containers,
		session:    session,
		opts:       opts,
		loc:        opts.location(),
	}
}

// Now returns the current time in the configured zone.
func (s *RecordService) Now() time.Time {
	return s.opts.Now().In(s.loc)
}

// List returns every record in insertion order.
func (s *RecordService) List() []domain.DateRecord {
	return s.records.All()
}

// Upcoming returns every record with its next occurrence, soonest first.
func (s *RecordService) Upcoming() []domain.Occurrence {
	return domain.Upcoming(s.records.All(), s.Now())
}

// Get returns one record.
func (s *RecordService) Get(id uuid.UUID) (domain.DateRecord, error) {
	r, ok := s.records.ByID(id)
	if !ok {
		return domain.DateRecord{}, fmt.Errorf("service.RecordService.Get: %w", domain.ErrNotFound)
	}
	return r, nil
}

// AnySelected reports whether at least one record is selected.
func (s *RecordService) AnySelected() bool { return s.records.AnySelected() }

// AllSelected reports whether every record is selected.
func (s *RecordService) AllSelected() bool { return s.records.AllSelected() }

// HasName reports whether a record with exactly this name exists.
func (s *RecordService) HasName(name string) bool { return s.records.HasName(name) }

// ---- Synchronised operations -----------------------------------------------

// Refresh replaces local state with the remote listing. The container is
// looked up but never created; a missing container is an empty listing.
// It returns the number of records held afterwards.
func (s *RecordService) Refresh(ctx context.Context) (int, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	n, err := s.refresh(ctx)
	if err != nil {
		return 0, s.fail(ctx, domain.OpRefresh, domain.DateRecord{}, fmt.Errorf("service.RecordService.Refresh: %w", err))
	}
	s.opts.record(ctx, domain.JournalEntry{Op: domain.OpRefresh})
	s.opts.notify("records.refreshed", n)
	return n, nil
}

func (s *RecordService) refresh(ctx context.Context) (int, error) {
	if _, err := s.tokens.AcquireToken(ctx); err != nil {
		return 0, err
	}
	cid, ok, err := s.containers.Lookup(ctx)
	if err != nil {
		return 0, external(err)
	}

	var items []remote.Item
	if ok {
		items, err = s.remote.ListItems(ctx, cid)
		if errors.Is(err, remote.ErrContainerNotFound) {
			s.containers.Invalidate(cid)
			items, err = nil, nil
		}
		if err != nil {
			return 0, external(err)
		}
	}

	listed := make([]domain.DateRecord, 0, len(items))
	for _, it := range items {
		listed = append(listed, domain.DateRecord{ExternalID: it.ID, Name: it.Name, Date: it.Date})
	}
	s.records.Replace(merge.Reconcile(s.records.All(), listed, uuid.New))
	return s.records.Len(), nil
}

// Create adds a record on the remote calendar, creating the calendar on
// first use, then commits it locally with the returned external id.
// On failure nothing is added.
func (s *RecordService) Create(ctx context.Context, name string, date time.Time) (domain.DateRecord, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	rec, err := s.create(ctx, name, date)
	if err != nil {
		return domain.DateRecord{}, s.fail(ctx, domain.OpCreate, domain.DateRecord{Name: name}, fmt.Errorf("service.RecordService.Create: %w", err))
	}
	s.opts.record(ctx, entry(domain.OpCreate, rec))
	s.opts.notify("record.created", rec)
	return rec, nil
}

// CreateOn creates a record from a month and day, dated on their next
// occurrence. February 29 is dated in the most recent leap year up to that
// occurrence so the day itself is kept.
func (s *RecordService) CreateOn(ctx context.Context, name string, month time.Month, day int) (domain.DateRecord, error) {
	date, err := nextDate(month, day, s.Now())
	if err != nil {
		return domain.DateRecord{}, s.fail(ctx, domain.OpCreate, domain.DateRecord{Name: name}, fmt.Errorf("service.RecordService.CreateOn: %w", err))
	}
	return s.Create(ctx, name, date)
}

func (s *RecordService) create(ctx context.Context, name string, date time.Time) (domain.DateRecord, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, date); err != nil {
		return domain.DateRecord{}, err
	}
	if _, err := s.tokens.AcquireToken(ctx); err != nil {
		return domain.DateRecord{}, err
	}

	date = civil(date)
	extID, err := s.createItem(ctx, remote.NewBirthdayEvent(name, date, s.opts.TimeZone))
	if err != nil {
		return domain.DateRecord{}, err
	}

	rec := domain.DateRecord{ID: uuid.New(), Name: name, Date: date, ExternalID: extID}
	if err := s.records.Add(rec); err != nil {
		return domain.DateRecord{}, err
	}
	return rec, nil
}

// createItem posts ev, re-resolving the container once if the cached one
// has disappeared.
func (s *RecordService) createItem(ctx context.Context, ev remote.Event) (string, error) {
	for attempt := 0; ; attempt++ {
		cid, err := s.containers.Resolve(ctx)
		if err != nil {
			return "", external(err)
		}
		id, err := s.remote.CreateItem(ctx, cid, ev)
		if errors.Is(err, remote.ErrContainerNotFound) {
			s.containers.Invalidate(cid)
			if attempt == 0 {
				s.opts.Logger.InfoContext(ctx, "calendar disappeared, resolving again", "container_id", cid)
				continue
			}
		}
		if err != nil {
			return "", external(err)
		}
		return id, nil
	}
}

// Update pushes the merged fields to the remote event, then commits them and
// leaves edit mode. On failure the record keeps its old values and stays in
// edit mode. An update that changes nothing only leaves edit mode.
func (s *RecordService) Update(ctx context.Context, id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	rec, err := s.update(ctx, id, u)
	if err != nil {
		return domain.DateRecord{}, s.fail(ctx, domain.OpUpdate, rec, fmt.Errorf("service.RecordService.Update: %w", err))
	}
	s.opts.record(ctx, entry(domain.OpUpdate, rec))
	s.opts.notify("record.updated", rec)
	return rec, nil
}

func (s *RecordService) update(ctx context.Context, id uuid.UUID, u domain.RecordUpdate) (domain.DateRecord, error) {
	cur, ok := s.records.ByID(id)
	if !ok {
		return domain.DateRecord{ID: id}, domain.ErrNotFound
	}
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
	if u.Date != nil {
		d := civil(*u.Date)
		u.Date = &d
	}
	if u.Empty() {
		s.records.StopEditing(id)
		cur.Editing = false
		return cur, nil
	}
	if !cur.Synced() {
		return cur, domain.ErrNotSynced
	}

	next := u.Apply(cur)
	if err := validate(next.Name, next.Date); err != nil {
		return cur, err
	}
	if _, err := s.tokens.AcquireToken(ctx); err != nil {
		return cur, err
	}
	cid, err := s.existingContainer(ctx)
	if err != nil {
		return cur, err
	}
	if err := s.remote.UpdateItem(ctx, cid, cur.ExternalID, remote.NewBirthdayEvent(next.Name, next.Date, s.opts.TimeZone)); err != nil {
		if errors.Is(err, remote.ErrContainerNotFound) {
			s.containers.Invalidate(cid)
		}
		return cur, external(err)
	}

	got, ok := s.records.Update(id, u)
	if !ok {
		return cur, domain.ErrNotFound
	}
	s.records.StopEditing(id)
	got.Editing = false
	return got, nil
}

// Delete removes the remote event, then the local record. An event that is
// already gone remotely counts as deleted.
func (s *RecordService) Delete(ctx context.Context, id uuid.UUID) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	rec, err := s.delete(ctx, id)
	if err != nil {
		return s.fail(ctx, domain.OpDelete, rec, fmt.Errorf("service.RecordService.Delete: %w", err))
	}
	s.opts.record(ctx, entry(domain.OpDelete, rec))
	s.opts.notify("record.deleted", rec)
	return nil
}

func (s *RecordService) delete(ctx context.Context, id uuid.UUID) (domain.DateRecord, error) {
	rec, ok := s.records.ByID(id)
	if !ok {
		return domain.DateRecord{ID: id}, domain.ErrNotFound
	}
	if !rec.Synced() {
		return rec, domain.ErrNotSynced
	}
	if _, err := s.tokens.AcquireToken(ctx); err != nil {
		return rec, err
	}
	cid, err := s.existingContainer(ctx)
	if err != nil {
		return rec, err
	}

	err = s.remote.DeleteItem(ctx, cid, rec.ExternalID)
	switch {
	case err == nil:
	case errors.Is(err, remote.ErrItemNotFound):
		s.opts.Logger.InfoContext(ctx, "event already gone remotely", "record_id", id, "external_id", rec.ExternalID)
	case errors.Is(err, remote.ErrContainerNotFound):
		s.containers.Invalidate(cid)
		return rec, external(err)
	default:
		return rec, external(err)
	}

	s.records.Remove(id)
	return rec, nil
}

// DeleteSelected deletes every selected record one at a time, continuing
// past failures. The returned error joins every failure.
func (s *RecordService) DeleteSelected(ctx context.Context) (domain.BulkResult, error) {
	var (
		res  domain.BulkResult
		errs []error
	)
	for _, r := range s.records.Selected() {
		if err := s.Delete(ctx, r.ID); err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		res.Deleted++
	}
	return res, errors.Join(errs...)
}

// ---- Local state -----------------------------------------------------------

// ToggleSelected flips the selection of one record.
func (s *RecordService) ToggleSelected(id uuid.UUID) error {
	if !s.records.ToggleSelected(id) {
		return fmt.Errorf("service.RecordService.ToggleSelected: %w", domain.ErrNotFound)
	}
	s.opts.notify("records.selection", id)
	return nil
}

// SetSelected sets the selection of one record.
func (s *RecordService) SetSelected(id uuid.UUID, selected bool) error {
	if !s.records.SetSelected(id, selected) {
		return fmt.Errorf("service.RecordService.SetSelected: %w", domain.ErrNotFound)
	}
	s.opts.notify("records.selection", id)
	return nil
}

// SetAllSelected selects or deselects every record.
func (s *RecordService) SetAllSelected(selected bool) {
	s.records.SetAllSelected(selected)
	s.opts.notify("records.selection", nil)
}

// ToggleAll deselects everything when all records are selected and selects
// everything otherwise.
func (s *RecordService) ToggleAll() {
	s.records.ToggleAll()
	s.opts.notify("records.selection", nil)
}

// ToggleEditing moves edit mode to id, or leaves it if id already holds it.
func (s *RecordService) ToggleEditing(id uuid.UUID) (domain.DateRecord, error) {
	if !s.records.ToggleEditing(id) {
		return domain.DateRecord{}, fmt.Errorf("service.RecordService.ToggleEditing: %w", domain.ErrNotFound)
	}
	r, _ := s.records.ByID(id)
	return r, nil
}

// ---- helpers ---------------------------------------------------------------

// existingContainer resolves the container without creating it. Update and
// delete only make sense against a calendar that already exists.
func (s *RecordService) existingContainer(ctx context.Context) (string, error) {
	cid, ok, err := s.containers.Lookup(ctx)
	if err != nil {
		return "", external(err)
	}
	if !ok {
		return "", external(remote.ErrContainerNotFound)
	}
	return cid, nil
}

// fail sets the session's last error and journals the failure.
func (s *RecordService) fail(ctx context.Context, op domain.JournalOp, rec domain.DateRecord, err error) error {
	s.session.Fail(err)
	e := entry(op, rec)
	e.Error = err.Error()
	s.opts.record(ctx, e)
	s.opts.Logger.WarnContext(ctx, "sync operation failed", "op", op, "record_id", rec.ID, "error", err)
	return err
}

func entry(op domain.JournalOp, rec domain.DateRecord) domain.JournalEntry {
	return domain.JournalEntry{Op: op, RecordID: rec.ID, ExternalID: rec.ExternalID, Name: rec.Name}
}

func validate(name string, date time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	return nil
}

// external marks err as a failure of the external service. Auth failures
// keep their own classification.
func external(err error) error {
	if errors.Is(err, domain.ErrAuth) || errors.Is(err, domain.ErrExternal) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrExternal, err)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nextDate validates a month and day and dates them on their next occurrence.
func nextDate(month time.Month, day int, now time.Time) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	// 2000 is a leap year, so February allows 29.
	if last := time.Date(2000, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day < 1 || day > last {
		return time.Time{}, fmt.Errorf("%w: day must be between 1 and %d for %s", domain.ErrValidation, last, month)
	}

	year := domain.NextOccurrence(time.Date(2000, month, day, 0, 0, 0, 0, time.UTC), now).Year()
	if month == time.February && day == 29 {
		for !isLeap(year) {
			year--
		}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
