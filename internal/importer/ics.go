package importer

import (
	"fmt"
	"io"
	"iter"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// ICSRows reads one row per VEVENT: SUMMARY as the name and the date part of
// DTSTART as the date. The calendar is parsed on first iteration.
func ICSRows(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cal, err := ical.ParseCalendar(r)
		if err != nil {
			yield(Row{}, fmt.Errorf("ics: %w", err))
			return
		}
		for _, ev := range cal.Events() {
			var row Row
			if p := ev.GetProperty(ical.ComponentPropertySummary); p != nil {
				row.Name = strings.TrimSpace(p.Value)
			}
			if p := ev.GetProperty(ical.ComponentPropertyDtStart); p != nil {
				row.Date = icsDate(p.Value)
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// icsDate rewrites the YYYYMMDD prefix of a DATE or DATE-TIME value as
// YYYY-MM-DD. Anything else is returned as is.
func icsDate(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 8 {
		return v
	}
	for _, c := range v[:8] {
		if c < '0' || c > '9' {
			return v
		}
	}
	return v[:4] + "-" + v[4:6] + "-" + v[6:8]
}
