package graph

import (
	"time"

	"github.com/pkordes/belatedly/internal/remote"
)

type calendar struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type user struct {
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

type mailboxSettings struct {
	TimeZone string `json:"timeZone"`
}

type dateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type recurrencePattern struct {
	Type       string `json:"type"`
	Interval   int    `json:"interval"`
	Month      int    `json:"month"`
	DayOfMonth int    `json:"dayOfMonth"`
}

type recurrenceRange struct {
	Type               string `json:"type"`
	StartDate          string `json:"startDate"`
	RecurrenceTimeZone string `json:"recurrenceTimeZone,omitempty"`
}

type patternedRecurrence struct {
	Pattern recurrencePattern `json:"pattern"`
	Range   recurrenceRange   `json:"range"`
}

type event struct {
	ID                         string               `json:"id,omitempty"`
	Subject                    string               `json:"subject"`
	Start                      *dateTimeTimeZone    `json:"start,omitempty"`
	End                        *dateTimeTimeZone    `json:"end,omitempty"`
	IsAllDay                   bool                 `json:"isAllDay"`
	ShowAs                     string               `json:"showAs,omitempty"`
	IsReminderOn               bool                 `json:"isReminderOn"`
	ReminderMinutesBeforeStart int                  `json:"reminderMinutesBeforeStart"`
	Recurrence                 *patternedRecurrence `json:"recurrence,omitempty"`
}

func (c *Client) toWire(ev remote.Event) event {
	tz := ev.TimeZone
	if tz == "" {
		tz = c.timeZone
	}
	out := event{
		Subject:                    ev.Subject,
		Start:                      &dateTimeTimeZone{DateTime: remote.FormatDateTime(ev.Start), TimeZone: tz},
		End:                        &dateTimeTimeZone{DateTime: remote.FormatDateTime(ev.End), TimeZone: tz},
		IsAllDay:                   ev.AllDay,
		IsReminderOn:               ev.ReminderMinutes > 0,
		ReminderMinutesBeforeStart: ev.ReminderMinutes,
		Recurrence: &patternedRecurrence{
			Pattern: recurrencePattern{
				Type:       "absoluteYearly",
				Interval:   max(ev.Recurrence.Interval, 1),
				Month:      int(ev.Recurrence.Month),
				DayOfMonth: ev.Recurrence.DayOfMonth,
			},
			Range: recurrenceRange{
				Type:               "endDate",
				StartDate:          remote.FormatDate(ev.Recurrence.RangeStart),
				RecurrenceTimeZone: tz,
			},
		},
	}
	if ev.Recurrence.NoEnd {
		out.Recurrence.Range.Type = "noEnd"
	}
	if ev.ShowAsFree {
		out.ShowAs = "free"
	}
	return out
}

// item reads an event back. The recurrence start date is preferred since it
// holds the date as originally entered.
func (e event) item() (remote.Item, bool) {
	var (
		d   time.Time
		err error
	)
	switch {
	case e.Recurrence != nil && e.Recurrence.Range.StartDate != "":
		d, err = remote.ParseDate(e.Recurrence.Range.StartDate)
	case e.Start != nil:
		d, err = remote.ParseDate(e.Start.DateTime)
	default:
		return remote.Item{}, false
	}
	if err != nil || e.ID == "" {
		return remote.Item{}, false
	}
	return remote.Item{ID: e.ID, Name: e.Subject, Date: d}, true
}
