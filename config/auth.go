package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses the GitHub OAuth handshake.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeDev uses a fixed local identity (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, dev)", v)
	}
}

// GitHubConfig contains GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL" envDefault:"http://localhost:8080/auth/github/callback"`
	// Endpoint overrides the OAuth endpoint for GitHub Enterprise; empty
	// means github.com.
	Endpoint string `env:"ENDPOINT"`
	// APIBaseURL overrides the API host for GitHub Enterprise; empty means
	// api.github.com.
	APIBaseURL string `env:"API_BASE_URL"`
}

// DevAuthConfig controls the fixed dev identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	ProviderID  string `env:"PROVIDER_ID"  envDefault:"dev-1"`
	Username    string `env:"USERNAME"     envDefault:"devnurse"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev Nurse"`
}

// TokenConfig controls session token issuance.
type TokenConfig struct {
	// Secret signs session tokens. Required.
	Secret string `env:"SECRET,required"`
	// TTL is the session token lifetime.
	TTL time.Duration `env:"TTL" envDefault:"1h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// GitHub configuration (used when Mode=oauth).
	GitHub GitHubConfig `envPrefix:"GITHUB_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Token signing configuration.
	Token TokenConfig `envPrefix:"TOKEN_"`

	// RevocationEnabled turns on the Redis logout denylist. When false,
	// logout relies on the client discarding its token.
	RevocationEnabled bool `env:"AUTH_REVOCATION_ENABLED" envDefault:"true"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	const minTTL = time.Minute
	if a.Token.TTL < minTTL {
		a.Token.TTL = minTTL
	}
}
