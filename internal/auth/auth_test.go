package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/pkordes/belatedly/internal/auth"
	"github.com/pkordes/belatedly/internal/domain"
)

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- Source ----------------------------------------------------------------

func TestStatic_AcquireToken(t *testing.T) {
	tok, err := auth.Static("abc").AcquireToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestSource_AcquireToken_FailureIsAuthError(t *testing.T) {
	src := auth.NewSource(tokenSourceFunc(func() (*oauth2.Token, error) {
		return nil, errors.New("refresh token revoked")
	}))

	_, err := src.AcquireToken(context.Background())

	require.ErrorIs(t, err, domain.ErrAuth)
	assert.ErrorContains(t, err, "refresh token revoked")
}

func TestSource_AcquireToken_ExpiredIsAuthError(t *testing.T) {
	src := auth.NewSource(tokenSourceFunc(func() (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}, nil
	}))

	_, err := src.AcquireToken(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestStatic_EmptyTokenIsAuthError(t *testing.T) {
	_, err := auth.Static("").AcquireToken(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuth)
}

// ---- Token file ------------------------------------------------------------

func TestSaveToken_LoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	in := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}

	require.NoError(t, auth.SaveToken(path, in))
	got, err := auth.LoadToken(path)

	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
}

func TestLoadToken_Missing(t *testing.T) {
	_, err := auth.LoadToken(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestPersist_SavesOnlyChangedTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	current := &oauth2.Token{AccessToken: "first", RefreshToken: "r"}
	ts := auth.Persist(tokenSourceFunc(func() (*oauth2.Token, error) { return current, nil }), path, current, discard())

	_, err := ts.Token()
	require.NoError(t, err)
	_, err = auth.LoadToken(path)
	assert.Error(t, err, "unchanged token must not be written")

	current = &oauth2.Token{AccessToken: "second", RefreshToken: "r2"}
	_, err = ts.Token()
	require.NoError(t, err)

	saved, err := auth.LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "second", saved.AccessToken)
	assert.Equal(t, "r2", saved.RefreshToken)
}

func TestFromFile_MissingToken(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id"}

	_, err := auth.FromFile(context.Background(), cfg, filepath.Join(t.TempDir(), "token.json"), discard())

	assert.ErrorContains(t, err, "login")
}

func TestFromFile_ValidToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, auth.SaveToken(path, &oauth2.Token{AccessToken: "live", Expiry: time.Now().Add(time.Hour)}))

	src, err := auth.FromFile(context.Background(), &oauth2.Config{ClientID: "id"}, path, discard())
	require.NoError(t, err)

	tok, err := src.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live", tok)
}

// ---- Configs ---------------------------------------------------------------

func TestMicrosoftConfig(t *testing.T) {
	cfg, err := auth.MicrosoftConfig("client", "secret", "")

	require.NoError(t, err)
	assert.Contains(t, cfg.Endpoint.AuthURL, "/common/")
	assert.Contains(t, cfg.Scopes, "Calendars.ReadWrite")

	_, err = auth.MicrosoftConfig("", "", "")
	assert.Error(t, err)
}

func TestGoogleConfig_MissingFile(t *testing.T) {
	_, err := auth.GoogleConfig(filepath.Join(t.TempDir(), "credentials.json"))
	assert.Error(t, err)
}

// ---- Interactive -----------------------------------------------------------

func TestInteractive_Token(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.NotEmpty(t, r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"fresh","refresh_token":"keep","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(tokenSrv.Close)

	flow := auth.Interactive{
		Config: &oauth2.Config{
			ClientID: "id",
			Endpoint: oauth2.Endpoint{AuthURL: "https://login.example.com/authorize", TokenURL: tokenSrv.URL},
		},
		Addr:    "127.0.0.1:0",
		Timeout: 10 * time.Second,
		Open: func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			q := u.Query()
			redirect := q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state"))
			go func() {
				resp, err := http.Get(redirect)
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}

	tok, err := flow.Token(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "keep", tok.RefreshToken)
}

func TestInteractive_StateMismatch(t *testing.T) {
	flow := auth.Interactive{
		Config:  &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{AuthURL: "https://login.example.com/authorize"}},
		Addr:    "127.0.0.1:0",
		Timeout: 10 * time.Second,
		Open: func(authURL string) error {
			u, _ := url.Parse(authURL)
			go func() {
				resp, err := http.Get(u.Query().Get("redirect_uri") + "?code=x&state=forged")
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}

	_, err := flow.Token(context.Background())

	assert.ErrorContains(t, err, "state mismatch")
}
