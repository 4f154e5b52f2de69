// Package service contains the synchronization layer of the Belatedly backend.
// Every record-mutating operation calls the external calendar service first
// and commits to the local store only after that call succeeds.
// Services depend on interfaces (remote.Service, auth.Provider, repo.JournalRepo),
// never on concrete adapters.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/repo"
)

// Notifier receives a message after every successful state change.
// kind names the change, for example "record.created".
type Notifier interface {
	Notify(kind string, data any)
}

// Options carries the optional collaborators shared by the services.
// Zero values are valid: no journal, no notifications, UTC, slog.Default.
type Options struct {
	TimeZone string
	Journal  repo.JournalRepo
	Notifier Notifier
	Logger   *slog.Logger

	// Now returns the current time. Tests pin it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.TimeZone == "" {
		o.TimeZone = "UTC"
	}
	return o
}

// location resolves TimeZone, falling back to UTC for unknown names.
func (o Options) location() *time.Location {
	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// record appends e to the journal when one is configured. A journal failure
// is logged and never fails the operation it describes.
func (o Options) record(ctx context.Context, e domain.JournalEntry) {
	if o.Journal == nil {
		return
	}
	if _, err := o.Journal.Append(ctx, e); err != nil {
		o.Logger.WarnContext(ctx, "journal append failed", "op", e.Op, "error", err)
	}
}

func (o Options) notify(kind string, data any) {
	if o.Notifier != nil {
		o.Notifier.Notify(kind, data)
	}
}
