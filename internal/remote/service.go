// Package remote defines the contract for the external calendar service that
// is the system of record for date records, plus the event payload every
// adapter sends. Adapters live in the graph and google subpackages.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrContainerNotFound is returned when the calendar a call targets no
	// longer exists. Callers holding a cached container id should drop it.
	ErrContainerNotFound = errors.New("remote: container not found")

	// ErrItemNotFound is returned when the targeted event no longer exists.
	ErrItemNotFound = errors.New("remote: item not found")
)

// Container is a calendar that holds date records.
type Container struct {
	ID   string
	Name string
}

// Item is one remote event as read back from a listing.
type Item struct {
	ID   string
	Name string
	Date time.Time
}

// Service is the external record service. Every call may block on the
// network and may fail. ListItems iterates pagination to completion.
type Service interface {
	ListContainers(ctx context.Context) ([]Container, error)
	CreateContainer(ctx context.Context, name string) (Container, error)
	ListItems(ctx context.Context, containerID string) ([]Item, error)
	CreateItem(ctx context.Context, containerID string, ev Event) (string, error)
	UpdateItem(ctx context.Context, containerID, itemID string, ev Event) error
	DeleteItem(ctx context.Context, containerID, itemID string) error
}

// Profile identifies the signed-in account.
type Profile struct {
	DisplayName       string
	UserPrincipalName string
}

// ProfileService is implemented by adapters that can describe the signed-in
// account. MailboxTimeZone returns the account's configured zone name, or ""
// when none is set.
type ProfileService interface {
	Profile(ctx context.Context) (Profile, error)
	MailboxTimeZone(ctx context.Context) (string, error)
}

// APIError is a non-success response from a remote API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote: status %d: %s: %s", e.Status, e.Code, e.Message)
}
