package github

// Package github implements the IdentityProvider port against GitHub OAuth.
// GitHub is plain OAuth2 (no OIDC discovery or id_token); the profile and
// verified primary email come from the REST API after the code exchange.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gogithub "github.com/google/go-github/github"
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
)

// Sentinel errors distinguishing the two handshake failure stages.
var (
	ErrExchangeFailed     = errors.New("provider code exchange failed")
	ErrProfileUnavailable = errors.New("provider profile unavailable")
)

// defaultTimeout bounds every provider round trip. The code exchange is
// single-use and must not be retried, so the timeout errs on the generous side.
const defaultTimeout = 15 * time.Second

// Provider implements the IdentityProvider port using GitHub OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// ProviderConfig holds configuration for the GitHub provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	HTTPClient   *http.Client // Optional; defaults to a client with a request timeout

	// Endpoint and APIBaseURL override the public github.com endpoints for
	// GitHub Enterprise deployments and for tests.
	Endpoint   *oauth2.Endpoint
	APIBaseURL string
}

// NewProvider creates a new GitHub OAuth provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("callback URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	endpoint := oauth2github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
		apiBaseURL: cfg.APIBaseURL,
	}, nil
}

// Begin starts the login flow and returns the GitHub authorization URL with a
// cryptographically random state.
func (p *Provider) Begin(_ context.Context) (string, string, error) {
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	return p.config.AuthCodeURL(state), state, nil
}

// Exchange trades the authorization code for the authenticated identity.
func (p *Provider) Exchange(ctx context.Context, code string) (domainauth.Identity, error) {
	if code == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: authorization code is required", ErrExchangeFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	gh := gogithub.NewClient(p.config.Client(ctx, tok))
	if p.apiBaseURL != "" {
		base, parseErr := url.Parse(p.apiBaseURL)
		if parseErr != nil {
			return domainauth.Identity{}, fmt.Errorf("%w: parse API base URL: %v", ErrProfileUnavailable, parseErr)
		}
		gh.BaseURL = base
	}
	return p.fetchIdentity(ctx, gh)
}

// fetchIdentity loads the profile and primary verified email for the
// token-bearing user.
func (p *Provider) fetchIdentity(ctx context.Context, gh *gogithub.Client) (domainauth.Identity, error) {
	profile, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: fetch profile: %v", ErrProfileUnavailable, err)
	}
	if profile.GetLogin() == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: profile has no login", ErrProfileUnavailable)
	}

	email := profile.GetEmail()
	if verified := p.primaryVerifiedEmail(ctx, gh); verified != "" {
		email = verified
	}
	if email == "" {
		// No verified email exposed; synthesize a stable placeholder so the
		// identity stays unique and resolvable on later logins.
		email = profile.GetLogin() + "@users.noreply.github.com"
	}

	displayName := profile.GetName()
	if displayName == "" {
		displayName = profile.GetLogin()
	}

	return domainauth.Identity{
		ProviderID:  strconv.FormatInt(profile.GetID(), 10),
		Username:    profile.GetLogin(),
		Email:       email,
		DisplayName: displayName,
	}, nil
}

// primaryVerifiedEmail returns the primary verified address, or any verified
// address when no primary is flagged. Failures fall through to the profile
// email / placeholder path.
func (p *Provider) primaryVerifiedEmail(ctx context.Context, gh *gogithub.Client) string {
	emails, _, err := gh.Users.ListEmails(ctx, &gogithub.ListOptions{PerPage: 100})
	if err != nil {
		return ""
	}

	var fallback string
	for _, e := range emails {
		if !e.GetVerified() {
			continue
		}
		if e.GetPrimary() {
			return e.GetEmail()
		}
		if fallback == "" {
			fallback = e.GetEmail()
		}
	}
	return fallback
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
