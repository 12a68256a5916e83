package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// refreshMargin renews tokens this long before they expire
const refreshMargin = 60 * time.Second

// persistingSource hands out tokens from an auto-refreshing source and calls
// onRefresh whenever a new access token was issued
type persistingSource struct {
	mu        sync.Mutex
	base      oauth2.TokenSource
	last      *oauth2.Token
	onRefresh func(*oauth2.Token) error
}

// NewTokenSource returns a token source that refreshes token when it is about
// to expire and persists each refreshed token through onRefresh
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) oauth2.TokenSource {
	return &persistingSource{
		base:      oauth2.ReuseTokenSourceWithExpiry(token, cfg.TokenSource(ctx, token), refreshMargin),
		last:      token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if necessary
func (s *persistingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if s.onRefresh != nil {
			if err := s.onRefresh(tok); err != nil {
				return nil, fmt.Errorf("saving refreshed token: %w", err)
			}
		}
	}
	s.last = tok
	return tok, nil
}
