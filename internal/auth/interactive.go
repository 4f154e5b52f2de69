package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Interactive runs the authorization code flow with a loopback redirect.
// The redirect URL of Config is replaced by the address the listener binds.
type Interactive struct {
	Config *oauth2.Config

	// Addr is the loopback listen address. Defaults to 127.0.0.1:6789.
	Addr string

	// Open presents the authorization URL to the user, for example by
	// printing it or launching a browser.
	Open func(authURL string) error

	// Timeout bounds how long the user has to finish. Defaults to 5 minutes.
	Timeout time.Duration
}

// Token runs the flow and exchanges the returned code for a token.
func (in Interactive) Token(ctx context.Context) (*oauth2.Token, error) {
	addr := in.Addr
	if addr == "" {
		addr = "127.0.0.1:6789"
	}
	timeout := in.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("auth.Interactive.Token: listen on %s: %w", addr, err)
	}
	defer ln.Close()

	cfg := *in.Config
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	fail := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			q := r.URL.Query()
			switch {
			case q.Get("state") != state:
				http.Error(w, "state mismatch", http.StatusBadRequest)
				fail(errors.New("state mismatch in redirect"))
			case q.Get("error") != "":
				http.Error(w, "authorization denied", http.StatusBadRequest)
				fail(fmt.Errorf("authorization denied: %s", q.Get("error")))
			case q.Get("code") == "":
				http.Error(w, "authorization code not found", http.StatusBadRequest)
				fail(errors.New("authorization code not found in redirect"))
			default:
				_, _ = fmt.Fprint(w, "Signed in. You can close this window.")
				select {
				case codeCh <- q.Get("code"):
				default:
				}
			}
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}
	}()
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)
	if in.Open != nil {
		if err := in.Open(authURL); err != nil {
			return nil, fmt.Errorf("auth.Interactive.Token: %w", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(waitCtx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("auth.Interactive.Token: exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, fmt.Errorf("auth.Interactive.Token: %w", err)
	case <-waitCtx.Done():
		return nil, fmt.Errorf("auth.Interactive.Token: authorization timed out: %w", waitCtx.Err())
	}
}
