package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nurser/dutyboard/internal/data"
	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
	"github.com/nurser/dutyboard/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.UserStore        = (*MemoryUserStore)(nil)
	_ ports.TokenRevoker     = (*MemoryRevoker)(nil)
)

// MockIdentityProvider simulates an OAuth provider for tests with
// deterministic state handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context) (authURL, state string, err error)
	ExchangeFunc func(ctx context.Context, code string) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL         string
	StatePrefix     string
	DefaultIdentity domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-provider/authorize",
		StatePrefix: "state",
		DefaultIdentity: domainauth.Identity{
			ProviderID:  "mock-1",
			Username:    "mocknurse",
			Email:       "mock.nurse@example.com",
			DisplayName: "Mock Nurse",
		},
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context) (string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-provider/authorize"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)

	return authURL + "?state=" + state, state, nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	if code == "" {
		return domainauth.Identity{}, errors.New("code is required")
	}
	return m.DefaultIdentity, nil
}

// MemoryUserStore is an in-memory user store for unit tests.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int

	// ResolveErr forces ResolveIdentity to fail when set.
	ResolveErr error
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*model.User)}
}

// Seed inserts a user directly, for arranging test state.
func (m *MemoryUserStore) Seed(user model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

func (m *MemoryUserStore) ResolveIdentity(_ context.Context, identity domainauth.Identity) (*model.User, error) {
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, u := range m.users {
		if u.GithubID == identity.ProviderID || u.Email == identity.Email {
			u.GithubID = identity.ProviderID
			u.Username = identity.Username
			u.Email = identity.Email
			u.DisplayName = identity.DisplayName
			u.LastLogin = &now
			u.UpdatedAt = now
			copied := *u
			return &copied, nil
		}
	}

	m.nextID++
	user := &model.User{
		ID:          fmt.Sprintf("user-%d", m.nextID),
		GithubID:    identity.ProviderID,
		Username:    identity.Username,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        domainauth.RoleNurse,
		Active:      true,
		LastLogin:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (m *MemoryUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// MemoryRevoker is an in-memory token denylist for unit tests.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time

	// Err forces both operations to fail when set.
	Err error
}

// NewMemoryRevoker creates a new in-memory revoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevoker) Revoke(_ context.Context, rawToken string, ttl time.Duration) error {
	if m.Err != nil {
		return m.Err
	}
	if rawToken == "" {
		return errors.New("token cannot be empty")
	}
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[rawToken] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, rawToken string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[rawToken]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(m.revoked, rawToken)
		return false, nil
	}
	return true, nil
}
