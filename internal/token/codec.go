// Package token implements the signed session-token codec.
// Tokens are stateless JWTs pinned to a single signing algorithm;
// anything signed differently is rejected outright.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtstd "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
)

// Sentinel errors returned by Verify. Callers branch on these to pick the
// right HTTP status (missing vs invalid vs expired).
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrExpired          = errors.New("token is expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
)

// DefaultTTL is the session token lifetime.
const DefaultTTL = time.Hour

// signingMethod is pinned; Verify refuses any other algorithm.
var signingMethod = jwtstd.SigningMethodHS256

// Codec issues and verifies session tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) { c.ttl = ttl }
}

// WithNow overrides the clock, useful for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec constructs a Codec. The secret must be non-empty.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	c := &Codec{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// sessionClaims is the wire shape of the token payload.
type sessionClaims struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     domainauth.Role `json:"role"`
	jwtstd.RegisteredClaims
}

// Issue signs a new token carrying the given identity claims.
func (c *Codec) Issue(userID, username string, role domainauth.Role) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if username == "" {
		return "", errors.New("username is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q", role)
	}

	now := c.now().UTC()
	claims := sessionClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwtstd.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtstd.NewNumericDate(now),
			ExpiresAt: jwtstd.NewNumericDate(now.Add(c.ttl)),
		},
	}

	t := jwtstd.NewWithClaims(signingMethod, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a raw token. On success it returns the decoded
// claims; on failure one of the sentinel errors above.
func (c *Codec) Verify(raw string) (domainauth.Claims, error) {
	if raw == "" {
		return domainauth.Claims{}, ErrMalformed
	}

	var sc sessionClaims
	_, err := jwtstd.ParseWithClaims(raw, &sc,
		func(*jwtstd.Token) (any, error) { return c.secret, nil },
		jwtstd.WithValidMethods([]string{signingMethod.Alg()}),
		jwtstd.WithTimeFunc(c.now),
	)
	if err != nil {
		return domainauth.Claims{}, mapParseError(err)
	}

	claims, err := sc.toDomain()
	if err != nil {
		return domainauth.Claims{}, err
	}

	// The library already checked exp; re-check against our own clock so a
	// skewed or zero exp can never slip through.
	if claims.Expiry.IsZero() || claims.Expired(c.now()) {
		return domainauth.Claims{}, ErrExpired
	}
	return claims, nil
}

// toDomain validates required fields and converts to the domain claims shape.
func (sc sessionClaims) toDomain() (domainauth.Claims, error) {
	if sc.UserID == "" || sc.Username == "" {
		return domainauth.Claims{}, fmt.Errorf("%w: missing identity claims", ErrMalformed)
	}
	if !sc.Role.Valid() {
		return domainauth.Claims{}, fmt.Errorf("%w: unknown role %q", ErrMalformed, sc.Role)
	}
	out := domainauth.Claims{
		UserID:   sc.UserID,
		Username: sc.Username,
		Role:     sc.Role,
	}
	if sc.IssuedAt != nil {
		out.IssuedAt = sc.IssuedAt.Time
	}
	if sc.ExpiresAt != nil {
		out.Expiry = sc.ExpiresAt.Time
	}
	return out, nil
}

// mapParseError normalizes golang-jwt errors into the codec's sentinels.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtstd.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtstd.ErrTokenSignatureInvalid):
		// Covers both a wrong secret and a disallowed signing algorithm.
		return ErrInvalidSignature
	case errors.Is(err, jwtstd.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
