package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

// ErrSessionInvalid is returned when the server rejects the session token.
// Callers must not retry the failed request; the session has been cleared
// and the user needs to log in again.
var ErrSessionInvalid = errors.New("session is no longer valid")

// ErrNoToken is returned by Verify when no token is stored. It marks a clean
// logged-out state, not a failure: State().Err stays nil.
var ErrNoToken = errors.New("no session token stored")

// ErrAuthenticationFailed is returned by HandleCallback when the delivered
// token cannot be decoded. Nothing is stored; the session state is untouched.
var ErrAuthenticationFailed = errors.New("authentication failed")

// State is a point-in-time snapshot of the session.
type State struct {
	// User is the verified account, nil when logged out.
	User *model.User
	// Loading is true while the first verification is in flight.
	Loading bool
	// Err holds the most recent verification failure, nil after success
	// or logout.
	Err error
}

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	// BaseURL is the API server origin, e.g. "http://localhost:8080".
	BaseURL string
	// Storage persists the token. Defaults to in-memory storage.
	Storage TokenStorage
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// SessionStore tracks one authenticated session. All methods are safe for
// concurrent use. Consistency is kept with a mutex plus a monotonic
// generation counter: logout bumps the generation, and any verification
// that started under an older generation discards its result instead of
// resurrecting the cleared session. Logout always wins.
type SessionStore struct {
	baseURL string
	storage TokenStorage
	client  *http.Client
	logger  *slog.Logger

	mu         sync.Mutex
	user       *model.User
	loading    bool
	err        error
	generation uint64

	verifyGroup singleflight.Group
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	storage := opts.Storage
	if storage == nil {
		storage = NewMemoryTokenStorage()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		storage: storage,
		client:  httpClient,
		logger:  logger,
		loading: true,
	}
}

// Login returns the server's OAuth entry URL. The caller navigates the user
// there; the server drives the rest of the handshake and lands back on the
// client callback with a token.
func (s *SessionStore) Login() string {
	return s.baseURL + "/auth/github"
}

// HandleCallback stores the token delivered on the post-login callback and
// verifies it immediately so State reflects the logged-in user. The identity
// claims are decoded locally first and shown optimistically while the server
// round trip confirms them.
func (s *SessionStore) HandleCallback(ctx context.Context, token string) error {
	display, err := decodeDisplayClaims(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if err := s.storage.Save(token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}

	s.mu.Lock()
	s.user = &model.User{ID: display.UserID, Username: display.Username, Role: display.Role}
	s.err = nil
	s.mu.Unlock()

	_, err = s.Verify(ctx)
	return err
}

// displayClaims are the identity fields read from the token payload without
// signature verification. Display only; authorization always comes from the
// server-verified claims.
type displayClaims struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     domainauth.Role `json:"role"`
}

func decodeDisplayClaims(token string) (displayClaims, error) {
	var claims displayClaims
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims, errors.New("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims, fmt.Errorf("decode token payload: %w", err)
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, fmt.Errorf("parse token payload: %w", err)
	}
	if claims.UserID == "" || claims.Username == "" {
		return claims, errors.New("token payload is missing identity claims")
	}
	return claims, nil
}

// State returns a snapshot of the current session.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading, Err: s.err}
}

// Token returns the stored session token, "" when logged out.
func (s *SessionStore) Token() string {
	token, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("loading session token failed", "error", err)
		return ""
	}
	return token
}

// Verify checks the stored token against the server and updates the session
// state. Concurrent calls collapse into one request. Whatever the outcome,
// Loading is false once Verify settles.
func (s *SessionStore) Verify(ctx context.Context) (*model.User, error) {
	gen := s.currentGeneration()

	// No stored token is the clean logged-out state and needs no network
	// round trip.
	if s.Token() == "" {
		s.settle(gen, nil, ErrNoToken)
		return nil, ErrNoToken
	}

	// Keyed by generation: post-logout verifies never join a pre-logout
	// network call and share its stale result.
	result, err, _ := s.verifyGroup.Do(fmt.Sprintf("verify-%d", gen), func() (any, error) {
		return s.verifyOnce(ctx)
	})

	s.settle(gen, result, err)

	if err != nil {
		return nil, err
	}
	return result.(*model.User), nil
}

// verifyOnce performs the actual network verification.
func (s *SessionStore) verifyOnce(ctx context.Context) (*model.User, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body struct {
			Valid bool        `json:"valid"`
			User  *model.User `json:"user"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode verify response: %w", err)
		}
		if !body.Valid || body.User == nil {
			return nil, ErrSessionInvalid
		}
		return body.User, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The token is dead server-side; drop our copy.
		if clearErr := s.storage.Clear(); clearErr != nil {
			s.logger.Warn("clearing dead session token failed", "error", clearErr)
		}
		return nil, ErrSessionInvalid
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("verify session: unexpected status %d", resp.StatusCode)
	}
}

// settle records a verify outcome, unless a logout raced past it.
func (s *SessionStore) settle(gen uint64, result any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// Logged out while the request was in flight; the session stays
		// cleared no matter what came back.
		return
	}

	s.loading = false
	switch {
	case err == nil:
		s.user = result.(*model.User)
		s.err = nil
	case errors.Is(err, ErrNoToken):
		// Logged out, not a failure.
		s.user = nil
		s.err = nil
	default:
		s.user = nil
		s.err = err
	}
}

// Logout clears the session locally and best-effort revokes the token
// server-side. A revocation failure is logged, not surfaced: the local copy
// of the token is gone either way.
func (s *SessionStore) Logout(ctx context.Context) {
	token := s.Token()

	s.mu.Lock()
	s.generation++
	s.clearStateLocked()
	s.mu.Unlock()

	s.finishLogout(ctx, token)
}

// invalidate logs out only if the session generation has not moved since
// the caller captured it. The check and the generation bump happen under
// one lock acquisition, so a burst of rejected requests triggers exactly
// one logout per generation.
func (s *SessionStore) invalidate(ctx context.Context, gen uint64) {
	token := s.Token()

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.clearStateLocked()
	s.mu.Unlock()

	s.finishLogout(ctx, token)
}

// clearStateLocked resets session state. Callers hold s.mu.
func (s *SessionStore) clearStateLocked() {
	s.user = nil
	s.err = nil
	s.loading = false
}

// finishLogout drops the stored token and best-effort revokes it remotely.
func (s *SessionStore) finishLogout(ctx context.Context, token string) {
	if err := s.storage.Clear(); err != nil {
		s.logger.Warn("clearing session token failed", "error", err)
	}

	if token == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/logout", nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("server-side logout failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// currentGeneration reads the generation counter under the lock.
func (s *SessionStore) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
