// Package google implements remote.Service on the Google Calendar v3 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pkordes/belatedly/internal/remote"
)

// Scopes are the OAuth scopes the client needs.
var Scopes = []string{calendar.CalendarScope}

// Client is a Google Calendar client for date records.
type Client struct {
	srv      *calendar.Service
	timeZone string
}

// compile-time check
var _ remote.Service = (*Client)(nil)

// NewClient builds a calendar service on an authorised HTTP client.
// Extra options are appended, which tests use to point at a local endpoint.
func NewClient(ctx context.Context, hc *http.Client, timeZone string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google.NewClient: %w", err)
	}
	return &Client{srv: srv, timeZone: timeZone}, nil
}

// ListContainers returns every calendar on the user's calendar list.
func (c *Client) ListContainers(ctx context.Context) ([]remote.Container, error) {
	var out []remote.Container
	token := ""
	for {
		call := c.srv.CalendarList.List().Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("google.Client.ListContainers: %w", wrapAPIError(err))
		}
		for _, entry := range list.Items {
			out = append(out, remote.Container{ID: entry.Id, Name: entry.Summary})
		}
		if list.NextPageToken == "" {
			return out, nil
		}
		token = list.NextPageToken
	}
}

// CreateContainer creates a secondary calendar named name.
func (c *Client) CreateContainer(ctx context.Context, name string) (remote.Container, error) {
	cal, err := c.srv.Calendars.Insert(&calendar.Calendar{Summary: name, TimeZone: c.timeZone}).Context(ctx).Do()
	if err != nil {
		return remote.Container{}, fmt.Errorf("google.Client.CreateContainer: %w", wrapAPIError(err))
	}
	return remote.Container{ID: cal.Id, Name: cal.Summary}, nil
}

// ListItems returns the recurring master events of the calendar. Cancelled
// events and events without a readable start date are skipped.
func (c *Client) ListItems(ctx context.Context, containerID string) ([]remote.Item, error) {
	var out []remote.Item
	token := ""
	for {
		call := c.srv.Events.List(containerID).ShowDeleted(false).MaxResults(250).Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("google.Client.ListItems: %w", notFoundAs(err, remote.ErrContainerNotFound))
		}
		for _, ev := range events.Items {
			if it, ok := toItem(ev); ok {
				out = append(out, it)
			}
		}
		if events.NextPageToken == "" {
			return out, nil
		}
		token = events.NextPageToken
	}
}

// CreateItem inserts ev and returns the new event id.
func (c *Client) CreateItem(ctx context.Context, containerID string, ev remote.Event) (string, error) {
	created, err := c.srv.Events.Insert(containerID, c.toEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google.Client.CreateItem: %w", notFoundAs(err, remote.ErrContainerNotFound))
	}
	return created.Id, nil
}

// UpdateItem replaces the event with ev.
func (c *Client) UpdateItem(ctx context.Context, containerID, itemID string, ev remote.Event) error {
	if _, err := c.srv.Events.Update(containerID, itemID, c.toEvent(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("google.Client.UpdateItem: %w", notFoundAs(err, remote.ErrItemNotFound))
	}
	return nil
}

// DeleteItem deletes the event.
func (c *Client) DeleteItem(ctx context.Context, containerID, itemID string) error {
	if err := c.srv.Events.Delete(containerID, itemID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("google.Client.DeleteItem: %w", notFoundAs(err, remote.ErrItemNotFound))
	}
	return nil
}

func wrapAPIError(err error) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return err
	}
	apiErr := &remote.APIError{Status: gErr.Code, Message: gErr.Message}
	if len(gErr.Errors) > 0 {
		apiErr.Code = gErr.Errors[0].Reason
	}
	return fmt.Errorf("%w: %w", apiErr, err)
}

// notFoundAs maps a 404 (or 410 for deleted events) to sentinel.
func notFoundAs(err error, sentinel error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %w", sentinel, wrapAPIError(err))
	}
	return wrapAPIError(err)
}
