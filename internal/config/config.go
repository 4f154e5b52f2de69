// Package config loads and validates application configuration from
// environment variables, optionally layered over a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Calendar providers.
const (
	ProviderGraph  = "graph"
	ProviderGoogle = "google"
)

// Config holds all configuration values for the API server and the CLI.
// Values come from environment variables; a YAML file named by CONFIG_FILE
// supplies defaults for any variable that is unset.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// Provider selects the calendar backend: "graph" (default) or "google".
	Provider string

	// CalendarName is the calendar holding date records. Defaults to "Birthdays".
	CalendarName string

	// TimeZone is the IANA zone used for "today" and stamped on events.
	// When unset the Graph mailbox zone is used, falling back to UTC.
	TimeZone string

	// GraphBaseURL overrides the Microsoft Graph endpoint.
	GraphBaseURL string

	OAuthClientID        string
	OAuthClientSecret    string
	OAuthTenant          string
	OAuthCredentialsFile string

	// TokenFile holds the OAuth token written by "belatedly login".
	TokenFile string

	// AccessToken is a fixed bearer token. It wins over TokenFile and is
	// meant for development.
	AccessToken string

	// DatabaseURL enables the Postgres sync journal.
	DatabaseURL string

	// JournalSQLitePath enables the SQLite sync journal when DatabaseURL is empty.
	JournalSQLitePath string

	// RefreshCron schedules background refreshes. Empty disables them.
	RefreshCron string

	// ImportMaxRows caps how many rows one import file contributes. Defaults to 100.
	ImportMaxRows int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// fileConfig is the YAML overlay. Keys are the lower-case variable names.
type fileConfig struct {
	Port                 string   `yaml:"port"`
	LogLevel             string   `yaml:"log_level"`
	LogFile              string   `yaml:"log_file"`
	CORSOrigins          []string `yaml:"cors_origins"`
	Provider             string   `yaml:"calendar_provider"`
	CalendarName         string   `yaml:"calendar_name"`
	TimeZone             string   `yaml:"timezone"`
	GraphBaseURL         string   `yaml:"graph_base_url"`
	OAuthClientID        string   `yaml:"oauth_client_id"`
	OAuthClientSecret    string   `yaml:"oauth_client_secret"`
	OAuthTenant          string   `yaml:"oauth_tenant"`
	OAuthCredentialsFile string   `yaml:"oauth_credentials_file"`
	TokenFile            string   `yaml:"token_file"`
	DatabaseURL          string   `yaml:"database_url"`
	JournalSQLitePath    string   `yaml:"journal_sqlite_path"`
	RefreshCron          string   `yaml:"refresh_cron"`
	ImportMaxRows        int      `yaml:"import_max_rows"`
	MaxBodyBytes         int64    `yaml:"max_body_bytes"`
}

// Load reads configuration and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	f, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:                 getEnv("PORT", or(f.Port, "8080")),
		LogLevel:             getEnv("LOG_LEVEL", or(f.LogLevel, "info")),
		LogFile:              getEnv("LOG_FILE", f.LogFile),
		Provider:             strings.ToLower(getEnv("CALENDAR_PROVIDER", or(f.Provider, ProviderGraph))),
		CalendarName:         getEnv("CALENDAR_NAME", or(f.CalendarName, "Birthdays")),
		TimeZone:             getEnv("TIMEZONE", f.TimeZone),
		GraphBaseURL:         getEnv("GRAPH_BASE_URL", f.GraphBaseURL),
		OAuthClientID:        getEnv("OAUTH_CLIENT_ID", f.OAuthClientID),
		OAuthClientSecret:    getEnv("OAUTH_CLIENT_SECRET", f.OAuthClientSecret),
		OAuthTenant:          getEnv("OAUTH_TENANT", or(f.OAuthTenant, "common")),
		OAuthCredentialsFile: getEnv("OAUTH_CREDENTIALS_FILE", f.OAuthCredentialsFile),
		TokenFile:            getEnv("TOKEN_FILE", f.TokenFile),
		AccessToken:          os.Getenv("ACCESS_TOKEN"),
		DatabaseURL:          getEnv("DATABASE_URL", f.DatabaseURL),
		JournalSQLitePath:    getEnv("JOURNAL_SQLITE_PATH", f.JournalSQLitePath),
		RefreshCron:          getEnv("REFRESH_CRON", f.RefreshCron),
	}

	cfg.CORSOrigins = splitCSV(os.Getenv("CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = f.CORSOrigins
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173"}
	}

	var invalid []string

	rows, err := getEnvInt("IMPORT_MAX_ROWS", int64(or(f.ImportMaxRows, 100)))
	if err != nil || rows <= 0 {
		invalid = append(invalid, "IMPORT_MAX_ROWS")
	}
	cfg.ImportMaxRows = int(rows)

	cfg.MaxBodyBytes, err = getEnvInt("MAX_BODY_BYTES", or(f.MaxBodyBytes, 1<<20))
	if err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	if cfg.Provider != ProviderGraph && cfg.Provider != ProviderGoogle {
		invalid = append(invalid, "CALENDAR_PROVIDER")
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		invalid = append(invalid, "TIMEZONE")
	}

	var missing []string
	if cfg.AccessToken == "" {
		if cfg.TokenFile == "" {
			missing = append(missing, "TOKEN_FILE or ACCESS_TOKEN")
		}
		switch cfg.Provider {
		case ProviderGraph:
			if cfg.OAuthClientID == "" {
				missing = append(missing, "OAUTH_CLIENT_ID")
			}
		case ProviderGoogle:
			if cfg.OAuthCredentialsFile == "" {
				missing = append(missing, "OAUTH_CREDENTIALS_FILE")
			}
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Location returns the configured time zone, or UTC when it is unset or not
// an IANA name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func readFile(path string) (fileConfig, error) {
	var f fileConfig
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses the variable named by key, returning fallback when unset.
func getEnvInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// or returns v unless it is the zero value.
func or[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
