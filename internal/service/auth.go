package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
	"github.com/nurser/dutyboard/internal/ports"
	"github.com/nurser/dutyboard/internal/token"
)

// Sentinel errors for token verification outcomes beyond the codec's own.
var (
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrUserInactive = errors.New("user account is inactive")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Users    ports.UserStore
	Tokens   *token.Codec
	Revoker  ports.TokenRevoker // optional; nil disables server-side logout
	Logger   *slog.Logger
}

// AuthService orchestrates the login handshake and token lifecycle: provider
// exchange, identity resolution, token issue/verify and logout revocation.
type AuthService struct {
	provider ports.IdentityProvider
	users    ports.UserStore
	tokens   *token.Codec
	revoker  ports.TokenRevoker
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		users:    opts.Users,
		tokens:   opts.Tokens,
		revoker:  opts.Revoker,
		logger:   logger,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
}

// BeginLogin initiates the handshake and returns the provider authorization
// URL together with the state it carries.
func (s *AuthService) BeginLogin(ctx context.Context) (*BeginLoginResult, error) {
	authURL, state, err := s.provider.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state}, nil
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Token string
	User  *model.User
}

// CompleteLogin finishes the handshake: the single-use code is exchanged for
// an identity, the identity is resolved to a user record, and a session token
// is issued. Inactive accounts cannot log in.
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*CompleteLoginResult, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	user, err := s.users.ResolveIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	signed, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return &CompleteLoginResult{Token: signed, User: user}, nil
}

// Verification is the outcome of a successful token check.
type Verification struct {
	Claims domainauth.Claims
	User   *model.User
}

// VerifyToken validates a raw session token end to end: signature and expiry
// via the codec, then the revocation denylist, then the live user record.
// Holding a syntactically valid token is not enough once the account is
// deactivated or the token was logged out.
func (s *AuthService) VerifyToken(ctx context.Context, rawToken string) (*Verification, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil {
		revoked, revErr := s.revoker.IsRevoked(ctx, rawToken)
		if revErr != nil {
			return nil, fmt.Errorf("check revocation: %w", revErr)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	return &Verification{Claims: claims, User: user}, nil
}

// Logout invalidates the token server-side. It is idempotent and always
// safe to call: an invalid or expired token needs no revocation, and a
// denylist failure is logged rather than surfaced since the client discards
// the token regardless.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	if s.revoker == nil || rawToken == "" {
		return
	}

	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		// Nothing worth revoking.
		return
	}

	ttl := time.Until(claims.Expiry)
	if err := s.revoker.Revoke(ctx, rawToken, ttl); err != nil {
		s.logger.Warn("token revocation failed", "user_id", claims.UserID, "error", err)
	}
}
