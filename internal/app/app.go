// Package app builds the object graph shared by the API server and the CLI:
// token source, calendar adapter, journal, stores and services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/oauth2"

	"github.com/pkordes/belatedly/internal/auth"
	"github.com/pkordes/belatedly/internal/config"
	"github.com/pkordes/belatedly/internal/notify"
	"github.com/pkordes/belatedly/internal/remote"
	"github.com/pkordes/belatedly/internal/remote/google"
	"github.com/pkordes/belatedly/internal/remote/graph"
	"github.com/pkordes/belatedly/internal/repo"
	"github.com/pkordes/belatedly/internal/service"
	"github.com/pkordes/belatedly/internal/store"
	"github.com/pkordes/belatedly/migrations"
)

// mailboxLookupTimeout bounds the startup time zone lookup.
const mailboxLookupTimeout = 10 * time.Second

// App holds every long-lived collaborator. Journal and JournalService are
// nil when no journal is configured.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Tokens  *auth.Source
	Remote  remote.Service
	Journal repo.JournalRepo
	Hub     *notify.Hub

	Session        *service.SessionService
	Records        *service.RecordService
	Imports        *service.ImportService
	Export         *service.ExportService
	JournalService *service.JournalService

	closers []func()
}

// New wires the application from cfg. Call Close when done. An unset
// TimeZone is taken from the account's mailbox settings when the provider
// has them, otherwise UTC.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Logger: logger}

	tokens, err := Tokens(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Tokens = tokens

	svc, err := Remote(ctx, cfg, tokens)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	if cfg.TimeZone == "" {
		if cfg.TimeZone = mailboxTimeZone(ctx, svc, logger); cfg.TimeZone != "" {
			// Rebuild so the adapter stamps and prefers the mailbox zone.
			if svc, err = Remote(ctx, cfg, tokens); err != nil {
				return nil, fmt.Errorf("app.New: %w", err)
			}
		} else {
			cfg.TimeZone = "UTC"
		}
	}
	a.Config = cfg
	a.Remote = svc

	journal, closeJournal, err := OpenJournal(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Journal = journal
	a.closers = append(a.closers, closeJournal)

	a.Hub = notify.NewHub(logger, cfg.CORSOrigins)
	a.closers = append(a.closers, a.Hub.Close)

	opts := service.Options{
		TimeZone: cfg.TimeZone,
		Journal:  journal,
		Notifier: a.Hub,
		Logger:   logger,
	}
	records := store.NewRecords()
	profiles, _ := svc.(remote.ProfileService)
	a.Session = service.NewSessionService(tokens, profiles, cfg.TimeZone)
	a.Records = service.NewRecordService(
		records,
		svc,
		tokens,
		service.NewContainerResolver(svc, cfg.CalendarName),
		a.Session,
		opts,
	)
	a.Imports = service.NewImportService(a.Records, store.NewStaging(records.HasName), a.Session, cfg.ImportMaxRows, opts)
	a.Export = service.NewExportService(a.Records)
	if journal != nil {
		a.JournalService = service.NewJournalService(journal)
	}
	return a, nil
}

// Close releases the journal and disconnects change-feed clients.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// OAuthConfig returns the OAuth client for the configured provider.
func OAuthConfig(cfg config.Config) (*oauth2.Config, error) {
	switch cfg.Provider {
	case config.ProviderGoogle:
		return auth.GoogleConfig(cfg.OAuthCredentialsFile, google.Scopes...)
	case config.ProviderGraph:
		c, err := auth.MicrosoftConfig(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTenant)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("app.OAuthConfig: unknown provider %q", cfg.Provider)
	}
}

// Tokens returns the bearer token source. A configured access token wins
// over the token file.
func Tokens(ctx context.Context, cfg config.Config, logger *slog.Logger) (*auth.Source, error) {
	if cfg.AccessToken != "" {
		return auth.Static(cfg.AccessToken), nil
	}
	oc, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	return auth.FromFile(ctx, oc, cfg.TokenFile, logger)
}

// Remote builds the calendar adapter for the configured provider on an HTTP
// client authorised by tokens.
func Remote(ctx context.Context, cfg config.Config, tokens *auth.Source) (remote.Service, error) {
	hc := oauth2.NewClient(ctx, tokens.TokenSource())
	switch cfg.Provider {
	case config.ProviderGoogle:
		c, err := google.NewClient(ctx, hc, cfg.TimeZone)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGraph:
		return graph.NewClient(hc, cfg.GraphBaseURL, cfg.TimeZone), nil
	default:
		return nil, fmt.Errorf("app.Remote: unknown provider %q", cfg.Provider)
	}
}

// OpenJournal opens the sync journal: Postgres when DatabaseURL is set,
// otherwise SQLite when JournalSQLitePath is set, otherwise none. Postgres
// migrations are applied on open.
func OpenJournal(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.JournalRepo, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("app.OpenJournal: create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("app.OpenJournal: connect: %w", err)
		}
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("journal ready", "backend", "postgres")
		return repo.NewJournalRepo(pool), pool.Close, nil

	case cfg.JournalSQLitePath != "":
		j, err := repo.OpenSQLiteJournal(ctx, cfg.JournalSQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("app.OpenJournal: %w", err)
		}
		logger.Info("journal ready", "backend", "sqlite", "path", cfg.JournalSQLitePath)
		return j, func() {
			if err := j.Close(); err != nil {
				logger.Warn("journal close failed", "error", err)
			}
		}, nil

	default:
		logger.Info("journal disabled")
		return nil, func() {}, nil
	}
}

// migrate applies pending goose migrations. goose needs database/sql, so the
// pool is wrapped for the duration of the run.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("app.migrate: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("app.migrate: %w", err)
	}
	return nil
}

// mailboxTimeZone asks the adapter for the account's time zone. It returns ""
// when the adapter has no mailbox settings or the lookup fails.
func mailboxTimeZone(ctx context.Context, svc remote.Service, logger *slog.Logger) string {
	ps, ok := svc.(remote.ProfileService)
	if !ok {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, mailboxLookupTimeout)
	defer cancel()

	tz, err := ps.MailboxTimeZone(ctx)
	if err != nil {
		logger.Warn("mailbox time zone lookup failed, using UTC", "error", err)
		return ""
	}
	if tz != "" {
		logger.Info("using mailbox time zone", "time_zone", tz)
	}
	return tz
}

// Bootstrap signs in with the configured credentials and loads the records
// from the calendar. Either failure is also kept as the session's last
// error.
func (a *App) Bootstrap(ctx context.Context) error {
	if err := a.Session.Login(ctx); err != nil {
		return fmt.Errorf("app.Bootstrap: %w", err)
	}
	n, err := a.Records.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("app.Bootstrap: %w", err)
	}
	a.Logger.InfoContext(ctx, "records loaded", "count", n)
	return nil
}

// RefreshIfLoggedIn reloads the records from the calendar when the session
// is signed in. It is the scheduled refresh job.
func (a *App) RefreshIfLoggedIn(ctx context.Context) error {
	if !a.Session.State().LoggedIn {
		a.Logger.DebugContext(ctx, "refresh skipped, not logged in")
		return nil
	}
	n, err := a.Records.Refresh(ctx)
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "records refreshed", "count", n)
	return nil
}

// ChangeFeed returns the WebSocket handler for /ws.
func (a *App) ChangeFeed() http.Handler {
	return a.Hub
}
