package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Strava OAuth endpoints
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

// Scope grants read access to all activities including private ones, whose
// streams the estimators need. Strava separates scopes with commas.
const Scope = "read,activity:read_all"

// DefaultCallbackPort is where the local callback server listens
const DefaultCallbackPort = 8089

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackPort int             // 0 means DefaultCallbackPort
	Endpoint     oauth2.Endpoint // zero means Strava
}

func (c Config) port() int {
	if c.CallbackPort == 0 {
		return DefaultCallbackPort
	}
	return c.CallbackPort
}

// NewOAuthConfig creates an oauth2.Config redirecting to the local callback server
func NewOAuthConfig(cfg Config) *oauth2.Config {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = Endpoint
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", cfg.port()),
		Scopes:       []string{Scope},
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID reads the athlete ID Strava embeds in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return 0
	}
	id, _ := athlete["id"].(float64)
	return int64(id)
}
