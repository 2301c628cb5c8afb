package devauth

// Package devauth provides a simple, config-driven IdentityProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
)

// Config controls the dev auth provider behavior.
// All fields are required except DisplayName, which falls back to Username.
type Config struct {
	ProviderID  string
	Username    string
	Email       string
	DisplayName string
}

// Provider implements ports.IdentityProvider for local development.
// It short-circuits the OAuth flow by redirecting straight back to our own
// callback with locally generated state.
// Exchange ignores the code and returns the configured identity.
type Provider struct {
	identity domainauth.Identity
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ProviderID == "" {
		return nil, errors.New("dev auth: ProviderID is required")
	}
	if cfg.Username == "" {
		return nil, errors.New("dev auth: Username is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = cfg.Username
	}
	return &Provider{
		identity: domainauth.Identity{
			ProviderID:  cfg.ProviderID,
			Username:    cfg.Username,
			Email:       cfg.Email,
			DisplayName: displayName,
		},
	}, nil
}

// Begin returns a local callback URL and a cryptographically secure state.
func (p *Provider) Begin(_ context.Context) (string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	// Our standard handler expects GET /auth/github/callback?code=...&state=...
	authURL := "/auth/github/callback?code=dev&state=" + state
	return authURL, state, nil
}

// Exchange ignores the provided code (validation handled by handler) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ string) (domainauth.Identity, error) {
	return p.identity, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
