// Package socialauth handles sign-in through third-party identity providers.
//
// FILES:
//   - provider.go:  providers and the departure step (Launcher)
//   - reconcile.go: turning callback parameters into a session or an error
//   - server.go:    loopback HTTP server receiving the provider redirect
//   - relay.go:     websocket client for when no loopback port is reachable
//   - pages.go:     HTML shown in the browser after the redirect
package socialauth

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/session"
)

// Provider is an identity provider.
type Provider string

const (
	Google Provider = "google"
	GitHub Provider = "github"
)

// Providers lists the supported providers.
var Providers = []Provider{Google, GitHub}

// DisplayName is the provider name as shown to users.
func (p Provider) DisplayName() string {
	switch p {
	case Google:
		return "Google"
	case GitHub:
		return "GitHub"
	default:
		return string(p)
	}
}

// ParseProvider accepts a provider name in any case.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", &ConnectError{Provider: p, Err: fmt.Errorf("unknown provider %q", name)}
}

// ConnectError means the round trip to a provider could not be started.
type ConnectError struct {
	Provider Provider
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("Failed to connect to %s authentication. Please try again.", e.Provider.DisplayName())
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Launcher starts provider round trips.
type Launcher struct {
	store *session.Store
	urls  map[string]string
}

// NewLauncher creates a Launcher. urls maps provider names to their
// authorization URLs, as returned by config.ProviderURLs.
func NewLauncher(store *session.Store, urls map[string]string) *Launcher {
	return &Launcher{store: store, urls: urls}
}

// Begin records from as the redirect marker and returns the configured
// authorization URL for p. If p has no URL the marker is left untouched.
func (l *Launcher) Begin(p Provider, from string) (string, error) {
	return l.BeginWith(p, from, l.urls[string(p)])
}

// BeginWith is Begin with an authorization URL obtained elsewhere, such as
// from the relay.
func (l *Launcher) BeginWith(p Provider, from, authorizeURL string) (string, error) {
	if authorizeURL == "" {
		return "", &ConnectError{Provider: p, Err: fmt.Errorf("no authorization URL configured for %s", p)}
	}
	if err := l.store.SetRedirectMarker(from); err != nil {
		return "", &ConnectError{Provider: p, Err: err}
	}
	log.Info().Str("provider", string(p)).Str("from", from).Msg("socialauth: leaving for provider")
	return authorizeURL, nil
}
