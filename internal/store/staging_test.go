package store_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/store"
)

func draft(name string) domain.DraftRecord {
	return domain.DraftRecord{
		ID:   uuid.New(),
		Name: name,
		Date: time.Date(1985, time.March, 2, 0, 0, 0, 0, time.UTC),
	}
}

func names(ds []domain.DraftRecord) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

// ---- Ingest ----------------------------------------------------------------

func TestStaging_Ingest_DuplicateInBatch(t *testing.T) {
	st := store.NewStaging(store.NewRecords().HasName)

	n := st.Ingest([]domain.DraftRecord{draft("Alex Smith"), draft("Alex Smith")})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Alex Smith"}, names(st.All()))
}

func TestStaging_Ingest_NameAlreadyInStore(t *testing.T) {
	recs, _ := seeded(t, "Alex Smith")
	st := store.NewStaging(recs.HasName)

	n := st.Ingest([]domain.DraftRecord{draft("Alex Smith")})

	assert.Zero(t, n)
	assert.Zero(t, st.Len())
}

func TestStaging_Ingest_AlreadyStagedCountsAsEarlier(t *testing.T) {
	st := store.NewStaging(nil)
	require.Equal(t, 2, st.Ingest([]domain.DraftRecord{draft("Alex"), draft("Bob")}))

	n := st.Ingest([]domain.DraftRecord{draft("Bob"), draft("Carol")})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Alex", "Bob", "Carol"}, names(st.All()))
}

func TestStaging_Ingest_AssignsIDWhenMissing(t *testing.T) {
	st := store.NewStaging(nil)
	d := draft("Alex")
	d.ID = uuid.Nil

	st.Ingest([]domain.DraftRecord{d})

	require.Equal(t, 1, st.Len())
	assert.NotEqual(t, uuid.Nil, st.All()[0].ID)
}

func TestStaging_Ingest_KeepsUnparsedDate(t *testing.T) {
	st := store.NewStaging(nil)
	d := draft("Alex")
	d.Date = time.Time{}

	st.Ingest([]domain.DraftRecord{d})

	assert.True(t, st.All()[0].Date.IsZero())
}

// ---- Selection -------------------------------------------------------------

func TestStaging_ToggleAll(t *testing.T) {
	st := store.NewStaging(nil)
	st.Ingest([]domain.DraftRecord{draft("Alex"), draft("Bob")})

	st.ToggleAll()
	assert.True(t, st.AllSelected())
	assert.Len(t, st.Selected(), 2)

	st.ToggleAll()
	assert.False(t, st.AnySelected())
}

func TestStaging_SetAllSelected_Idempotent(t *testing.T) {
	st := store.NewStaging(nil)
	st.Ingest([]domain.DraftRecord{draft("Alex"), draft("Bob")})

	st.SetAllSelected(true)
	st.SetAllSelected(true)

	assert.True(t, st.AllSelected())
}

func TestStaging_ToggleSelected(t *testing.T) {
	st := store.NewStaging(nil)
	st.Ingest([]domain.DraftRecord{draft("Alex"), draft("Bob")})
	bob := st.All()[1]

	require.True(t, st.ToggleSelected(bob.ID))
	assert.False(t, st.ToggleSelected(uuid.New()))

	assert.Equal(t, []string{"Bob"}, names(st.Selected()))
	assert.True(t, st.AnySelected())
	assert.False(t, st.AllSelected())
}

// ---- Remove / Clear --------------------------------------------------------

func TestStaging_RemoveAndClear(t *testing.T) {
	st := store.NewStaging(nil)
	st.Ingest([]domain.DraftRecord{draft("Alex"), draft("Bob"), draft("Carol")})
	bob := st.All()[1]

	assert.True(t, st.Remove(bob.ID))
	assert.False(t, st.Remove(bob.ID))
	assert.Equal(t, []string{"Alex", "Carol"}, names(st.All()))

	st.Clear()
	assert.Zero(t, st.Len())
	assert.False(t, st.AllSelected())
}
