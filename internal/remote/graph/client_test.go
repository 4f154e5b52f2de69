package graph_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/belatedly/internal/remote"
	"github.com/pkordes/belatedly/internal/remote/graph"
)

func newClient(t *testing.T, h http.HandlerFunc) (*graph.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return graph.NewClient(srv.Client(), srv.URL, "Europe/Berlin"), srv
}

// ---- Containers ------------------------------------------------------------

func TestClient_ListContainers_FollowsNextLink(t *testing.T) {
	var srvURL string
	c, srv := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/calendars", r.URL.Path)
		if r.URL.Query().Get("page") == "2" {
			_, _ = io.WriteString(w, `{"value":[{"id":"c2","name":"Birthdays"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"value":[{"id":"c1","name":"Calendar"}],"@odata.nextLink":"`+srvURL+`/me/calendars?page=2"}`)
	})
	srvURL = srv.URL

	got, err := c.ListContainers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []remote.Container{{ID: "c1", Name: "Calendar"}, {ID: "c2", Name: "Birthdays"}}, got)
}

func TestClient_CreateContainer(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/calendars", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Birthdays", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"new-cal","name":"Birthdays"}`)
	})

	got, err := c.CreateContainer(context.Background(), "Birthdays")

	require.NoError(t, err)
	assert.Equal(t, remote.Container{ID: "new-cal", Name: "Birthdays"}, got)
}

// ---- Items -----------------------------------------------------------------

func TestClient_ListItems_PaginatesAndSendsTimezone(t *testing.T) {
	var srvURL string
	calls := 0
	c, srv := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/me/calendars/cal-1/events", r.URL.Path)
		assert.Equal(t, `outlook.timezone="Europe/Berlin"`, r.Header.Get("Prefer"))
		if r.URL.Query().Get("$skip") == "1" {
			_, _ = io.WriteString(w, `{"value":[
				{"id":"e2","subject":"Bob","start":{"dateTime":"2024-03-02T00:00:00.0000000","timeZone":"UTC"}},
				{"id":"e3","subject":"No date"}
			]}`)
			return
		}
		_, _ = io.WriteString(w, `{"value":[
			{"id":"e1","subject":"Alex","start":{"dateTime":"2025-06-15T00:00:00.0000000","timeZone":"UTC"},
			 "recurrence":{"pattern":{"type":"absoluteYearly","interval":1,"month":6,"dayOfMonth":15},"range":{"type":"noEnd","startDate":"1990-06-15"}}}
		],"@odata.nextLink":"`+srvURL+`/me/calendars/cal-1/events?$skip=1"}`)
	})
	srvURL = srv.URL

	got, err := c.ListItems(context.Background(), "cal-1")

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []remote.Item{
		{ID: "e1", Name: "Alex", Date: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "e2", Name: "Bob", Date: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)},
	}, got)
}

func TestClient_ListItems_MissingCalendar(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"ErrorItemNotFound","message":"The specified object was not found in the store."}}`)
	})

	_, err := c.ListItems(context.Background(), "gone")

	require.ErrorIs(t, err, remote.ErrContainerNotFound)
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ErrorItemNotFound", apiErr.Code)
}

func TestClient_CreateItem_Payload(t *testing.T) {
	var body map[string]any
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/calendars/cal-1/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"evt-9"}`)
	})
	ev := remote.NewBirthdayEvent("Alex", time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), "")

	id, err := c.CreateItem(context.Background(), "cal-1", ev)

	require.NoError(t, err)
	assert.Equal(t, "evt-9", id)
	assert.Equal(t, "Alex", body["subject"])
	assert.Equal(t, true, body["isAllDay"])
	assert.Equal(t, "free", body["showAs"])
	assert.Equal(t, true, body["isReminderOn"])
	assert.EqualValues(t, 10080, body["reminderMinutesBeforeStart"])
	assert.Equal(t, map[string]any{"dateTime": "1990-06-15T00:00:00.0000000", "timeZone": "Europe/Berlin"}, body["start"])
	assert.Equal(t, map[string]any{"dateTime": "1990-06-16T00:00:00.0000000", "timeZone": "Europe/Berlin"}, body["end"])

	rec := body["recurrence"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "absoluteYearly", "interval": 1.0, "month": 6.0, "dayOfMonth": 15.0}, rec["pattern"])
	assert.Equal(t, map[string]any{"type": "noEnd", "startDate": "1990-06-15", "recurrenceTimeZone": "Europe/Berlin"}, rec["range"])
}

func TestClient_CreateItem_MissingCalendar(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.CreateItem(context.Background(), "gone", remote.Event{})

	assert.ErrorIs(t, err, remote.ErrContainerNotFound)
}

func TestClient_UpdateItem(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/me/calendars/cal-1/events/evt-1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"evt-1"}`)
	})

	err := c.UpdateItem(context.Background(), "cal-1", "evt-1", remote.NewBirthdayEvent("A", time.Now(), ""))

	assert.NoError(t, err)
}

func TestClient_DeleteItem(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/me/calendars/cal-1/events/evt-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteItem(context.Background(), "cal-1", "evt-1"))
}

func TestClient_DeleteItem_NotFound(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteItem(context.Background(), "cal-1", "evt-1")

	assert.ErrorIs(t, err, remote.ErrItemNotFound)
}

func TestClient_ServerError(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "try later")
	})

	_, err := c.ListContainers(context.Background())

	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "try later", apiErr.Message)
	assert.NotErrorIs(t, err, remote.ErrContainerNotFound)
}

// ---- Profile ---------------------------------------------------------------

func TestClient_Profile(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "displayName,userPrincipalName", r.URL.Query().Get("$select"))
		_, _ = io.WriteString(w, `{"displayName":"Alex Smith","userPrincipalName":"alex@example.com"}`)
	})

	got, err := c.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, remote.Profile{DisplayName: "Alex Smith", UserPrincipalName: "alex@example.com"}, got)
}

func TestClient_Profile_Unauthorized(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":"InvalidAuthenticationToken","message":"expired"}}`)
	})

	_, err := c.Profile(context.Background())

	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "InvalidAuthenticationToken", apiErr.Code)
}

func TestClient_MailboxTimeZone(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/mailboxSettings", r.URL.Path)
		_, _ = io.WriteString(w, `{"timeZone":"W. Europe Standard Time","language":{"locale":"de-DE"}}`)
	})

	got, err := c.MailboxTimeZone(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "W. Europe Standard Time", got)
}

func TestClient_MailboxTimeZone_Unset(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	got, err := c.MailboxTimeZone(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}
