package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

// IdentityProvider initiates and completes an authentication flow against an
// external identity provider.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider authorization URL
	// together with the opaque state it embeds.
	Begin(ctx context.Context) (authURL, state string, err error)

	// Exchange completes the login flow by trading the authorization code for
	// the authenticated identity. The code is single-use and never retried.
	Exchange(ctx context.Context, code string) (domainauth.Identity, error)
}

// UserStore resolves and loads user records for the auth flow.
type UserStore interface {
	// ResolveIdentity finds the user matching the identity by provider id or
	// email, linking and creating as needed. The operation is atomic: a
	// concurrent callback replay for the same identity yields one record.
	ResolveIdentity(ctx context.Context, identity domainauth.Identity) (*model.User, error)

	// GetByID loads a user by internal id.
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// TokenRevoker records logged-out tokens so stateless sessions can still be
// cut short server-side. Implementations are best-effort; a nil revoker means
// logout relies on the client discarding the token.
type TokenRevoker interface {
	// Revoke marks the raw token as revoked for the given remaining lifetime.
	Revoke(ctx context.Context, rawToken string, ttl time.Duration) error

	// IsRevoked reports whether the raw token has been revoked.
	IsRevoked(ctx context.Context, rawToken string) (bool, error)
}
