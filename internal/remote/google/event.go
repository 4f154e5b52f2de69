package google

import (
	"time"

	"github.com/teambition/rrule-go"
	"google.golang.org/api/calendar/v3"

	"github.com/pkordes/belatedly/internal/remote"
)

// RecurrenceRule renders r as an RFC 5545 RRULE line. February 29 becomes
// the last day of February so that non-leap years observe the date on the
// 28th.
func RecurrenceRule(r remote.Recurrence) string {
	day := r.DayOfMonth
	if r.Month == time.February && day == 29 {
		day = -1
	}
	opt := rrule.ROption{
		Freq:       rrule.YEARLY,
		Interval:   max(r.Interval, 1),
		Bymonth:    []int{int(r.Month)},
		Bymonthday: []int{day},
	}
	return "RRULE:" + opt.RRuleString()
}

func (c *Client) toEvent(ev remote.Event) *calendar.Event {
	tz := ev.TimeZone
	if tz == "" {
		tz = c.timeZone
	}
	out := &calendar.Event{
		Summary:    ev.Subject,
		Start:      &calendar.EventDateTime{Date: remote.FormatDate(ev.Start), TimeZone: tz},
		End:        &calendar.EventDateTime{Date: remote.FormatDate(ev.End), TimeZone: tz},
		Recurrence: []string{RecurrenceRule(ev.Recurrence)},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if ev.ReminderMinutes > 0 {
		out.Reminders.Overrides = []*calendar.EventReminder{
			{Method: "popup", Minutes: int64(ev.ReminderMinutes)},
		}
	}
	if ev.ShowAsFree {
		out.Transparency = "transparent"
	}
	return out
}

func toItem(ev *calendar.Event) (remote.Item, bool) {
	if ev == nil || ev.Status == "cancelled" || ev.Start == nil || ev.Id == "" {
		return remote.Item{}, false
	}
	raw := ev.Start.Date
	if raw == "" {
		raw = ev.Start.DateTime
	}
	d, err := remote.ParseDate(raw)
	if err != nil {
		return remote.Item{}, false
	}
	return remote.Item{ID: ev.Id, Name: ev.Summary, Date: d}, true
}
