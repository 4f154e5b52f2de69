package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/store"
)

func rec(name string) domain.DateRecord {
	return domain.DateRecord{
		ID:         uuid.New(),
		Name:       name,
		Date:       time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		ExternalID: "ext-" + name,
	}
}

func seeded(t *testing.T, names ...string) (*store.Records, []domain.DateRecord) {
	t.Helper()
	s := store.NewRecords()
	out := make([]domain.DateRecord, 0, len(names))
	for _, n := range names {
		r := rec(n)
		require.NoError(t, s.Add(r))
		out = append(out, r)
	}
	return s, out
}

// ---- Add / Remove ----------------------------------------------------------

func TestRecords_Add_RejectsDuplicateID(t *testing.T) {
	s, rs := seeded(t, "Alex")

	dup := rs[0]
	dup.Name = "Someone Else"
	err := s.Add(dup)

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, s.Len())
	got, ok := s.ByID(rs[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Alex", got.Name)
}

func TestRecords_All_KeepsInsertionOrder(t *testing.T) {
	s, _ := seeded(t, "Carol", "Alex", "Bob")

	var names []string
	for _, r := range s.All() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Carol", "Alex", "Bob"}, names)
}

func TestRecords_Remove(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob")

	assert.True(t, s.Remove(rs[0].ID))
	assert.False(t, s.Remove(rs[0].ID), "second remove is a no-op")
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.HasName("Alex"))
	assert.True(t, s.HasName("Bob"))
}

// ---- Update ----------------------------------------------------------------

func TestRecords_Update_MergesFields(t *testing.T) {
	s, rs := seeded(t, "Alex")
	name := "Alex Smith"

	got, ok := s.Update(rs[0].ID, domain.RecordUpdate{Name: &name})

	require.True(t, ok)
	assert.Equal(t, "Alex Smith", got.Name)
	assert.Equal(t, rs[0].Date, got.Date)
	assert.Equal(t, rs[0].ExternalID, got.ExternalID, "external id is never cleared")
}

func TestRecords_Update_UnknownIDIsNoop(t *testing.T) {
	s, rs := seeded(t, "Alex")
	name := "Nobody"

	_, ok := s.Update(uuid.New(), domain.RecordUpdate{Name: &name})

	assert.False(t, ok)
	assert.Equal(t, rs, withoutFlags(s.All()))
}

// ---- Selection -------------------------------------------------------------

func TestRecords_SetAllSelected_Idempotent(t *testing.T) {
	s, _ := seeded(t, "Alex", "Bob")

	s.SetAllSelected(true)
	once := s.All()
	s.SetAllSelected(true)

	assert.Equal(t, once, s.All())
	assert.True(t, s.AllSelected())
}

func TestRecords_ToggleAll_TwiceRestoresUniformState(t *testing.T) {
	s, _ := seeded(t, "Alex", "Bob")
	s.SetAllSelected(true)

	s.ToggleAll()
	assert.False(t, s.AnySelected())

	s.ToggleAll()
	assert.True(t, s.AllSelected())
}

func TestRecords_ToggleAll_MixedSelectsEverything(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob", "Carol")
	require.True(t, s.ToggleSelected(rs[1].ID))

	s.ToggleAll()
	assert.True(t, s.AllSelected())

	s.ToggleAll()
	assert.False(t, s.AnySelected(), "mixed state is not restored")
}

func TestRecords_AnySelected(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob")
	assert.False(t, s.AnySelected())

	require.True(t, s.SetSelected(rs[1].ID, true))

	assert.True(t, s.AnySelected())
	assert.False(t, s.AllSelected())
	require.Len(t, s.Selected(), 1)
	assert.Equal(t, "Bob", s.Selected()[0].Name)
}

func TestRecords_AllSelected_EmptyStore(t *testing.T) {
	assert.False(t, store.NewRecords().AllSelected())
}

func TestRecords_ToggleSelected_UnknownID(t *testing.T) {
	s, _ := seeded(t, "Alex")
	assert.False(t, s.ToggleSelected(uuid.New()))
	assert.False(t, s.SetSelected(uuid.New(), true))
}

// ---- Editing ---------------------------------------------------------------

func TestRecords_ToggleEditing_SingleSlot(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob")

	require.True(t, s.ToggleEditing(rs[0].ID))
	require.True(t, s.ToggleEditing(rs[1].ID))

	id, ok := s.EditingID()
	require.True(t, ok)
	assert.Equal(t, rs[1].ID, id)

	editing := 0
	for _, r := range s.All() {
		if r.Editing {
			editing++
		}
	}
	assert.Equal(t, 1, editing)
}

func TestRecords_ToggleEditing_SameIDLeavesEditMode(t *testing.T) {
	s, rs := seeded(t, "Alex")

	s.ToggleEditing(rs[0].ID)
	s.ToggleEditing(rs[0].ID)

	_, ok := s.EditingID()
	assert.False(t, ok)
}

func TestRecords_Remove_ClearsEditSlot(t *testing.T) {
	s, rs := seeded(t, "Alex")
	s.ToggleEditing(rs[0].ID)

	s.Remove(rs[0].ID)

	_, ok := s.EditingID()
	assert.False(t, ok)
}

func TestRecords_StopEditing_OtherIDKeepsSlot(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob")
	s.ToggleEditing(rs[0].ID)

	s.StopEditing(rs[1].ID)
	id, ok := s.EditingID()
	require.True(t, ok)
	assert.Equal(t, rs[0].ID, id)

	s.StopEditing(rs[0].ID)
	_, ok = s.EditingID()
	assert.False(t, ok)
}

// ---- Replace ---------------------------------------------------------------

func TestRecords_Replace(t *testing.T) {
	s, rs := seeded(t, "Alex", "Bob")
	s.ToggleEditing(rs[1].ID)

	carol := rec("Carol")
	s.Replace([]domain.DateRecord{rs[1], carol, carol})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].Name)
	assert.True(t, all[0].Editing, "edit slot survives for a kept record")
	assert.Equal(t, "Carol", all[1].Name)
	assert.False(t, s.HasName("Alex"))
}

func TestRecords_Replace_DropsEditSlotForMissingRecord(t *testing.T) {
	s, rs := seeded(t, "Alex")
	s.ToggleEditing(rs[0].ID)

	s.Replace(nil)

	_, ok := s.EditingID()
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

// ---- Concurrency -----------------------------------------------------------

func TestRecords_ConcurrentAccess(t *testing.T) {
	s := store.NewRecords()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rec(uuid.NewString())
			_ = s.Add(r)
			s.ToggleSelected(r.ID)
			_ = s.All()
			s.ToggleAll()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func withoutFlags(rs []domain.DateRecord) []domain.DateRecord {
	for i := range rs {
		rs[i].Selected = false
		rs[i].Editing = false
	}
	return rs
}
