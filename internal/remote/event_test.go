package remote_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/belatedly/internal/remote"
)

func TestNewBirthdayEvent(t *testing.T) {
	date := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	ev := remote.NewBirthdayEvent("Alex", date, "Europe/Berlin")

	assert.Equal(t, "Alex", ev.Subject)
	assert.True(t, ev.AllDay)
	assert.True(t, ev.ShowAsFree)
	assert.Equal(t, 10080, ev.ReminderMinutes)
	assert.Equal(t, "Europe/Berlin", ev.TimeZone)
	assert.Equal(t, date, ev.Start)
	assert.Equal(t, date.AddDate(0, 0, 1), ev.End)
	assert.Equal(t, remote.Recurrence{
		Interval:   1,
		Month:      time.June,
		DayOfMonth: 15,
		RangeStart: date,
		NoEnd:      true,
	}, ev.Recurrence)
}

func TestNewBirthdayEvent_UsesCalendarDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	date := time.Date(1990, time.December, 31, 23, 30, 0, 0, loc)

	ev := remote.NewBirthdayEvent("Alex", date, "")

	assert.Equal(t, "1990-12-31T00:00:00.0000000", remote.FormatDateTime(ev.Start))
	assert.Equal(t, "1991-01-01T00:00:00.0000000", remote.FormatDateTime(ev.End))
	assert.Equal(t, "1990-12-31", remote.FormatDate(ev.Recurrence.RangeStart))
}

func TestNewBirthdayEvent_LeapDay(t *testing.T) {
	ev := remote.NewBirthdayEvent("Leap", time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC), "")

	assert.Equal(t, time.February, ev.Recurrence.Month)
	assert.Equal(t, 29, ev.Recurrence.DayOfMonth)
	assert.Equal(t, "2000-03-01", remote.FormatDate(ev.End))
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-02-29", "2024-02-29T00:00:00.0000000"} {
		got, err := remote.ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)
	}

	_, err := remote.ParseDate("15/06/1990")
	assert.Error(t, err)
}

func TestAPIError_Error(t *testing.T) {
	err := &remote.APIError{Status: 404, Code: "ErrorItemNotFound", Message: "gone"}
	assert.Equal(t, "remote: status 404: ErrorItemNotFound: gone", err.Error())

	err = &remote.APIError{Status: 500, Message: "boom"}
	assert.Equal(t, "remote: status 500: boom", err.Error())
}
