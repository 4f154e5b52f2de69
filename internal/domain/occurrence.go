package domain

import (
	"fmt"
	"sort"
	"time"
)

// NextOccurrence returns the next calendar date, on or after today in now's
// location, that matches date's month and day. The year of date is ignored.
//
// A February 29 date is observed on February 28 in non-leap years.
func NextOccurrence(date, now time.Time) time.Time {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	next := OccurrenceIn(now.Year(), date.Month(), date.Day(), loc)
	if next.Before(today) {
		next = OccurrenceIn(now.Year()+1, date.Month(), date.Day(), loc)
	}
	return next
}

// OccurrenceIn returns midnight of (month, day) in year. Days past the end of
// the month are clamped to its last day, which only matters for February 29.
func OccurrenceIn(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysUntil returns the number of whole days between midnight of now and next.
// Only calendar dates are compared, so DST transitions do not skew the count.
func DaysUntil(next, now time.Time) int {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// DaysUntilLabel renders a DaysUntil result for display.
func DaysUntilLabel(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// Occurrence is a record paired with its derived next-occurrence values.
type Occurrence struct {
	Record    DateRecord
	Next      time.Time
	DaysUntil int
}

// Upcoming derives the next occurrence of every record and returns them
// soonest first. Ties keep the input order.
func Upcoming(records []DateRecord, now time.Time) []Occurrence {
	out := make([]Occurrence, 0, len(records))
	for _, r := range records {
		next := NextOccurrence(r.Date, now)
		out = append(out, Occurrence{Record: r, Next: next, DaysUntil: DaysUntil(next, now)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
