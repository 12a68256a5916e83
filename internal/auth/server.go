package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// AuthTimeout is how long to wait for the user to complete auth
const AuthTimeout = 5 * time.Minute

const successPage = `<!DOCTYPE html>
<html>
<head><title>Connected to Strava</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
<h1>Connected</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

// Authenticate runs the authorization code flow with a local callback server.
// The authorization URL is written to out for the user to open.
func Authenticate(ctx context.Context, cfg Config, out io.Writer) (*AuthResult, error) {
	oauthCfg := NewOAuthConfig(cfg)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", cfg.port()))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}

	server := &http.Server{Handler: callbackHandler(state, codes, errs)}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			send(errs, fmt.Errorf("callback server: %w", err))
		}
	}()
	defer shutdownServer(server)

	fmt.Fprintf(out, "\nTo connect to Strava, open this URL in your browser:\n\n  %s\n\nWaiting for authorization...\n",
		oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-time.After(AuthTimeout):
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	return &AuthResult{Token: token, AthleteID: ExtractAthleteID(token)}, nil
}

// callbackHandler validates the redirect and forwards the authorization code
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			send(errs, errors.New("state mismatch - possible CSRF attack"))
			http.Error(w, "State mismatch", http.StatusBadRequest)
		case q.Get("error") != "":
			send(errs, fmt.Errorf("auth error: %s", q.Get("error")))
			http.Error(w, "Authentication failed", http.StatusBadRequest)
		case q.Get("code") == "":
			send(errs, errors.New("no code in callback"))
			http.Error(w, "No authorization code", http.StatusBadRequest)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, successPage)
			send(codes, q.Get("code"))
		}
	})
	return mux
}

// send delivers v unless a value is already waiting
func send[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
