// Package auth acquires bearer tokens for the external calendar service.
//
// Every token comes from an oauth2.TokenSource; the Provider wrapper turns
// any failure into domain.ErrAuth so callers can short-circuit without
// inspecting oauth2 errors.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/pkordes/belatedly/internal/domain"
)

// GraphScopes are the delegated Microsoft Graph permissions Belatedly needs.
var GraphScopes = []string{"offline_access", "User.Read", "Calendars.ReadWrite"}

// Provider hands out bearer tokens. It never retries.
type Provider interface {
	AcquireToken(ctx context.Context) (string, error)
}

// Source adapts an oauth2.TokenSource to Provider.
type Source struct {
	ts oauth2.TokenSource
}

// compile-time check
var _ Provider = (*Source)(nil)

// NewSource wraps ts. The caller decides on caching; oauth2 configs already
// return a reusing source.
func NewSource(ts oauth2.TokenSource) *Source {
	return &Source{ts: ts}
}

// Static returns a Source that always yields token. Intended for development
// against a token minted elsewhere.
func Static(token string) *Source {
	return NewSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

// AcquireToken returns a valid access token.
func (s *Source) AcquireToken(_ context.Context) (string, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return "", fmt.Errorf("auth.Source.AcquireToken: %w: %w", domain.ErrAuth, err)
	}
	if !tok.Valid() {
		return "", fmt.Errorf("auth.Source.AcquireToken: %w: token is empty or expired", domain.ErrAuth)
	}
	return tok.AccessToken, nil
}

// TokenSource exposes the wrapped source for building authorised HTTP
// clients with oauth2.NewClient.
func (s *Source) TokenSource() oauth2.TokenSource {
	return s.ts
}

// GoogleConfig parses a downloaded OAuth client credentials file.
func GoogleConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("auth.GoogleConfig: read %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth.GoogleConfig: parse %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

// MicrosoftConfig builds an Azure AD v2 config. An empty tenant selects
// "common".
func MicrosoftConfig(clientID, clientSecret, tenant string) (*oauth2.Config, error) {
	if clientID == "" {
		return nil, errors.New("auth.MicrosoftConfig: client id is required")
	}
	if tenant == "" {
		tenant = "common"
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
		Scopes:       GraphScopes,
	}, nil
}
