package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewOAuthConfig(t *testing.T) {
	cfg := NewOAuthConfig(Config{ClientID: "123", ClientSecret: "s"})

	assert.Equal(t, "http://localhost:8089/callback", cfg.RedirectURL)
	assert.Equal(t, Endpoint, cfg.Endpoint)
	assert.Equal(t, []string{Scope}, cfg.Scopes)

	cfg = NewOAuthConfig(Config{CallbackPort: 9000})
	assert.Equal(t, "http://localhost:9000/callback", cfg.RedirectURL)
}

func TestExtractAthleteID(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]interface{}{
		"athlete": map[string]interface{}{"id": float64(4242)},
	})
	assert.Equal(t, int64(4242), ExtractAthleteID(tok))
	assert.Equal(t, int64(0), ExtractAthleteID(&oauth2.Token{}))
}

func tokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "access-%d", "refresh_token": "refresh-%d",
			"token_type": "Bearer", "expires_in": 21600}`, n, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenSource_RefreshesAndPersists(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	cfg := NewOAuthConfig(Config{
		ClientID: "id", ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams},
	})

	expired := &oauth2.Token{AccessToken: "old", RefreshToken: "r0", Expiry: time.Now().Add(-time.Minute)}
	var saved []*oauth2.Token
	ts := NewTokenSource(context.Background(), cfg, expired, func(tok *oauth2.Token) error {
		saved = append(saved, tok)
		return nil
	})

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, saved, 1)
	assert.Equal(t, "refresh-1", saved[0].RefreshToken)
}

func TestTokenSource_ValidTokenNotRefreshed(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	cfg := NewOAuthConfig(Config{Endpoint: oauth2.Endpoint{TokenURL: srv.URL}})

	valid := &oauth2.Token{AccessToken: "current", Expiry: time.Now().Add(time.Hour)}
	ts := NewTokenSource(context.Background(), cfg, valid, func(*oauth2.Token) error {
		t.Error("valid token must not be persisted again")
		return nil
	})

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "current", tok.AccessToken)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestTokenSource_PersistFailure(t *testing.T) {
	var calls int32
	srv := tokenServer(t, &calls)
	cfg := NewOAuthConfig(Config{Endpoint: oauth2.Endpoint{TokenURL: srv.URL}})

	expired := &oauth2.Token{AccessToken: "old", RefreshToken: "r0", Expiry: time.Now().Add(-time.Minute)}
	ts := NewTokenSource(context.Background(), cfg, expired, func(*oauth2.Token) error {
		return fmt.Errorf("disk full")
	})

	_, err := ts.Token()
	assert.ErrorContains(t, err, "disk full")
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  bool
		status   int
	}{
		{"success", "?state=s1&code=abc", "abc", false, http.StatusOK},
		{"state mismatch", "?state=evil&code=abc", "", true, http.StatusBadRequest},
		{"denied", "?state=s1&error=access_denied", "", true, http.StatusBadRequest},
		{"missing code", "?state=s1", "", true, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			errs := make(chan error, 1)
			h := callbackHandler("s1", codes, errs)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.wantErr {
				assert.Len(t, errs, 1)
				assert.Empty(t, codes)
				return
			}
			require.Len(t, codes, 1)
			assert.Equal(t, tt.wantCode, <-codes)
		})
	}
}
