package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("auth.LoadToken: decode %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok to path with owner-only permissions, creating the
// parent directory if needed.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("auth.SaveToken: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("auth.SaveToken: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("auth.SaveToken: encode: %w", err)
	}
	return nil
}

// persisting writes every token that differs from the last one seen back to
// disk, so refreshed access and refresh tokens survive a restart.
type persisting struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

// Persist wraps base so that refreshed tokens are saved to path. initial is
// the token already on disk, if any. Save failures are logged, not returned.
func Persist(base oauth2.TokenSource, path string, initial *oauth2.Token, logger *slog.Logger) oauth2.TokenSource {
	return &persisting{base: base, path: path, last: initial, logger: logger}
}

func (p *persisting) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || p.last.AccessToken != tok.AccessToken || p.last.RefreshToken != tok.RefreshToken {
		if err := SaveToken(p.path, tok); err != nil {
			p.logger.Warn("could not persist refreshed token", "path", p.path, "error", err)
		} else {
			p.logger.Debug("token persisted", "path", p.path)
		}
		p.last = tok
	}
	return tok, nil
}

// FromFile loads the token at path and returns a refreshing Source that
// persists updates back to the same file.
func FromFile(ctx context.Context, cfg *oauth2.Config, path string, logger *slog.Logger) (*Source, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, fmt.Errorf("auth.FromFile: no usable token at %s, run the login command first: %w", path, err)
	}
	ts := Persist(cfg.TokenSource(ctx, tok), path, tok, logger)
	return NewSource(oauth2.ReuseTokenSource(tok, ts)), nil
}
