package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/belatedly/internal/domain"
)

func TestRecordUpdate_ApplyMergesSetFields(t *testing.T) {
	r := domain.DateRecord{ID: uuid.New(), Name: "Alex", Date: day(1990, time.June, 15), ExternalID: "ext-1"}
	name := "Alex Smith"

	got := domain.RecordUpdate{Name: &name}.Apply(r)

	assert.Equal(t, "Alex Smith", got.Name)
	assert.Equal(t, r.Date, got.Date, "unset date must be kept")
	assert.Equal(t, "ext-1", got.ExternalID)
}

func TestRecordUpdate_Empty(t *testing.T) {
	d := day(2000, time.March, 3)

	assert.True(t, domain.RecordUpdate{}.Empty())
	assert.False(t, domain.RecordUpdate{Date: &d}.Empty())
}

func TestPaginationParams(t *testing.T) {
	page, limit := 3, 500

	p := domain.NewPaginationParams(&page, &limit)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, 400, p.Offset())
	assert.Equal(t, 2, p.Pages(201))
	assert.Equal(t, 0, p.Pages(0))

	def := domain.NewPaginationParams(nil, nil)
	assert.Equal(t, 1, def.Page)
	assert.Equal(t, 50, def.Limit)
}
