package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nurser/dutyboard/config"
	"github.com/nurser/dutyboard/internal/adapters/devauth"
	"github.com/nurser/dutyboard/internal/adapters/github"
	redisadapter "github.com/nurser/dutyboard/internal/adapters/redis"
	"github.com/nurser/dutyboard/internal/ports"
	"github.com/nurser/dutyboard/internal/service"
	"github.com/nurser/dutyboard/internal/token"

	"golang.org/x/oauth2"
)

// AuthDeps contains dependencies for building the auth service.
type AuthDeps struct {
	Auth  config.AuthConfig
	Users ports.UserStore
	// RedisClient backs the logout denylist. Nil (or revocation disabled)
	// means logout relies on the client discarding its token.
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	codec, err := token.NewCodec(deps.Auth.Token.Secret, token.WithTTL(deps.Auth.Token.TTL))
	if err != nil {
		return nil, fmt.Errorf("build token codec: %w", err)
	}

	provider, err := buildIdentityProvider(deps.Auth)
	if err != nil {
		return nil, err
	}

	var revoker ports.TokenRevoker
	if deps.Auth.RevocationEnabled && deps.RedisClient != nil {
		revoker = redisadapter.NewRevocationStore(deps.RedisClient)
	} else if deps.Logger != nil {
		deps.Logger.Warn("token revocation disabled; logout is client-side only")
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Users:    deps.Users,
		Tokens:   codec,
		Revoker:  revoker,
		Logger:   deps.Logger,
	}), nil
}

func buildIdentityProvider(cfg config.AuthConfig) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case config.AuthModeDev:
		return devauth.NewProvider(devauth.Config{
			ProviderID:  cfg.DevAuth.ProviderID,
			Username:    cfg.DevAuth.Username,
			Email:       cfg.DevAuth.Email,
			DisplayName: cfg.DevAuth.DisplayName,
		})

	case config.AuthModeOAuth:
		gh := cfg.GitHub
		if gh.ClientID == "" || gh.ClientSecret == "" {
			return nil, fmt.Errorf("auth mode %q needs GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET", cfg.Mode)
		}

		providerCfg := github.ProviderConfig{
			ClientID:     gh.ClientID,
			ClientSecret: gh.ClientSecret,
			CallbackURL:  gh.CallbackURL,
			APIBaseURL:   gh.APIBaseURL,
		}
		if gh.Endpoint != "" {
			// GitHub Enterprise: OAuth endpoints live under the instance host.
			providerCfg.Endpoint = &oauth2.Endpoint{
				AuthURL:  gh.Endpoint + "/login/oauth/authorize",
				TokenURL: gh.Endpoint + "/login/oauth/access_token",
			}
		}
		return github.NewProvider(providerCfg)

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
