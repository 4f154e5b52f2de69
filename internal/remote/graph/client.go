// Package graph implements remote.Service on the Microsoft Graph calendar API.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkordes/belatedly/internal/remote"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client talks to Graph with an already authorised HTTP client, typically
// one built by oauth2.NewClient.
type Client struct {
	hc       *http.Client
	baseURL  string
	timeZone string
}

// compile-time checks
var (
	_ remote.Service        = (*Client)(nil)
	_ remote.ProfileService = (*Client)(nil)
)

// NewClient returns a Graph client. An empty baseURL selects DefaultBaseURL.
// timeZone is sent as the preferred Outlook time zone and stamped on events;
// empty means UTC.
func NewClient(hc *http.Client, baseURL, timeZone string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &Client{hc: hc, baseURL: strings.TrimRight(baseURL, "/"), timeZone: timeZone}
}

// ListContainers returns every calendar of the signed-in user.
func (c *Client) ListContainers(ctx context.Context) ([]remote.Container, error) {
	var out []remote.Container
	next := "/me/calendars?$select=id,name"
	for next != "" {
		var page struct {
			Value    []calendar `json:"value"`
			NextLink string     `json:"@odata.nextLink"`
		}
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("graph.Client.ListContainers: %w", err)
		}
		for _, cal := range page.Value {
			out = append(out, remote.Container{ID: cal.ID, Name: cal.Name})
		}
		next = page.NextLink
	}
	return out, nil
}

// CreateContainer creates a calendar named name.
func (c *Client) CreateContainer(ctx context.Context, name string) (remote.Container, error) {
	var cal calendar
	if err := c.do(ctx, http.MethodPost, "/me/calendars", calendar{Name: name}, &cal); err != nil {
		return remote.Container{}, fmt.Errorf("graph.Client.CreateContainer: %w", err)
	}
	return remote.Container{ID: cal.ID, Name: cal.Name}, nil
}

// ListItems returns every event of the calendar, following @odata.nextLink
// until the listing is exhausted. Events without a readable date are skipped.
func (c *Client) ListItems(ctx context.Context, containerID string) ([]remote.Item, error) {
	var out []remote.Item
	next := eventsPath(containerID) + "?$select=id,subject,start,recurrence"
	for next != "" {
		var page struct {
			Value    []event `json:"value"`
			NextLink string  `json:"@odata.nextLink"`
		}
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("graph.Client.ListItems: %w", notFoundAs(err, remote.ErrContainerNotFound))
		}
		for _, ev := range page.Value {
			it, ok := ev.item()
			if ok {
				out = append(out, it)
			}
		}
		next = page.NextLink
	}
	return out, nil
}

// CreateItem posts ev to the calendar and returns the new event id.
func (c *Client) CreateItem(ctx context.Context, containerID string, ev remote.Event) (string, error) {
	var created event
	if err := c.do(ctx, http.MethodPost, eventsPath(containerID), c.toWire(ev), &created); err != nil {
		return "", fmt.Errorf("graph.Client.CreateItem: %w", notFoundAs(err, remote.ErrContainerNotFound))
	}
	if created.ID == "" {
		return "", fmt.Errorf("graph.Client.CreateItem: response carried no event id")
	}
	return created.ID, nil
}

// UpdateItem patches the event with the fields of ev.
func (c *Client) UpdateItem(ctx context.Context, containerID, itemID string, ev remote.Event) error {
	path := eventsPath(containerID) + "/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodPatch, path, c.toWire(ev), nil); err != nil {
		return fmt.Errorf("graph.Client.UpdateItem: %w", notFoundAs(err, remote.ErrItemNotFound))
	}
	return nil
}

// DeleteItem deletes the event.
func (c *Client) DeleteItem(ctx context.Context, containerID, itemID string) error {
	path := eventsPath(containerID) + "/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("graph.Client.DeleteItem: %w", notFoundAs(err, remote.ErrItemNotFound))
	}
	return nil
}

// Profile returns the signed-in user's display name and principal name.
func (c *Client) Profile(ctx context.Context) (remote.Profile, error) {
	var me user
	if err := c.do(ctx, http.MethodGet, "/me?$select=displayName,userPrincipalName", nil, &me); err != nil {
		return remote.Profile{}, fmt.Errorf("graph.Client.Profile: %w", err)
	}
	return remote.Profile{DisplayName: me.DisplayName, UserPrincipalName: me.UserPrincipalName}, nil
}

// MailboxTimeZone returns the time zone of the user's mailbox settings.
// Graph may report a Windows zone name such as "W. Europe Standard Time".
func (c *Client) MailboxTimeZone(ctx context.Context) (string, error) {
	var settings mailboxSettings
	if err := c.do(ctx, http.MethodGet, "/me/mailboxSettings?$select=timeZone", nil, &settings); err != nil {
		return "", fmt.Errorf("graph.Client.MailboxTimeZone: %w", err)
	}
	return settings.TimeZone, nil
}

func eventsPath(containerID string) string {
	return "/me/calendars/" + url.PathEscape(containerID) + "/events"
}

// do sends one request. target is either a path under the base URL or an
// absolute URL such as an @odata.nextLink.
func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	u := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		u = c.baseURL + target
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", fmt.Sprintf("outlook.timezone=%q", c.timeZone))
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &remote.APIError{Status: resp.StatusCode}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(b, &env) == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

// notFoundAs maps a 404 response to sentinel, keeping the API error in the
// chain.
func notFoundAs(err error, sentinel error) error {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}
