package remote

import "time"

// ReminderMinutes is the fixed reminder offset: seven days before the date.
const ReminderMinutes = 7 * 24 * 60

const (
	dateLayout     = "2006-01-02"
	dateTimeSuffix = "T00:00:00.0000000"
)

// Event is the payload for one yearly recurring all-day event.
// Start and End are civil dates at midnight UTC.
type Event struct {
	Subject         string
	Start           time.Time
	End             time.Time
	TimeZone        string
	AllDay          bool
	ShowAsFree      bool
	ReminderMinutes int
	Recurrence      Recurrence
}

// Recurrence is a yearly rule on an absolute month and day.
type Recurrence struct {
	Interval   int
	Month      time.Month
	DayOfMonth int
	RangeStart time.Time
	NoEnd      bool
}

// NewBirthdayEvent derives the event payload for a record.
// Only the calendar date of date is used.
func NewBirthdayEvent(name string, date time.Time, timeZone string) Event {
	start := civil(date)
	return Event{
		Subject:         name,
		Start:           start,
		End:             start.AddDate(0, 0, 1),
		TimeZone:        timeZone,
		AllDay:          true,
		ShowAsFree:      true,
		ReminderMinutes: ReminderMinutes,
		Recurrence: Recurrence{
			Interval:   1,
			Month:      start.Month(),
			DayOfMonth: start.Day(),
			RangeStart: start,
			NoEnd:      true,
		},
	}
}

// FormatDateTime renders t as YYYY-MM-DDT00:00:00.0000000.
func FormatDateTime(t time.Time) string {
	return t.Format(dateLayout) + dateTimeSuffix
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate reads the date part of a YYYY-MM-DD value, with or without a
// trailing time.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
