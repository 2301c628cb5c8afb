package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurser/dutyboard/internal/domain/model"
)

// fakeServer mimics the API's auth surface: one valid token, counters for
// verify and logout calls.
type fakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	validToken  string
	verifyCalls atomic.Int64
	logoutCalls atomic.Int64
}

// sessionToken builds a JWT-shaped token whose payload carries the display
// claims HandleCallback decodes locally. The signature is never checked
// client-side, so a placeholder will do.
func sessionToken(t *testing.T, userID, username string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"user_id":  userID,
		"username": username,
		"role":     "nurse",
	})
	require.NoError(t, err)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{validToken: sessionToken(t, "user-1", "nurse1")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		fs.verifyCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+fs.currentToken() {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "token_invalid"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user":  model.User{ID: "user-1", Username: "nurse1", Active: true},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		fs.logoutCalls.Add(1)
		fs.mu.Lock()
		fs.validToken = ""
		fs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) currentToken() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.validToken
}

func newTestSession(t *testing.T, fs *fakeServer) *SessionStore {
	t.Helper()
	return NewSessionStore(SessionStoreOptions{
		BaseURL: fs.URL,
		Storage: NewMemoryTokenStorage(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSessionStore_Login(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)

	assert.Equal(t, fs.URL+"/auth/github", s.Login())
}

func TestSessionStore_HandleCallback(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)

	require.NoError(t, s.HandleCallback(context.Background(), fs.currentToken()))

	state := s.State()
	require.NotNil(t, state.User)
	assert.Equal(t, "nurse1", state.User.Username)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestSessionStore_HandleCallback_UndecodableToken(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)

	err := s.HandleCallback(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Empty(t, s.Token(), "garbage token is never stored")
	assert.Equal(t, int64(0), fs.verifyCalls.Load())
	assert.Nil(t, s.State().User)
}

func TestSessionStore_Verify_NoToken(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)

	_, err := s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	state := s.State()
	assert.Nil(t, state.User)
	assert.False(t, state.Loading, "loading settles")
	assert.NoError(t, state.Err, "logged out is a clean state, not a failure")
	assert.Equal(t, int64(0), fs.verifyCalls.Load(), "no network call without a token")
}

func TestSessionStore_Verify_RejectedTokenClearsStorage(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)
	require.NoError(t, s.storage.Save("stale-token"))

	_, err := s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.Empty(t, s.Token(), "rejected token is dropped from storage")
}

func TestSessionStore_Verify_Collapses(t *testing.T) {
	var verifyCalls atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		verifyCalls.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user":  model.User{ID: "user-1", Username: "nurse1", Active: true},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSessionStore(SessionStoreOptions{
		BaseURL: server.URL,
		Storage: NewMemoryTokenStorage(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, s.storage.Save("good-token"))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Verify(context.Background())
		}()
	}

	// Hold the first response until the rest have had a chance to join the
	// in-flight call.
	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Less(t, verifyCalls.Load(), int64(20), "concurrent verifies collapse")
	require.NotNil(t, s.State().User)
}

func TestSessionStore_Logout(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)
	require.NoError(t, s.HandleCallback(context.Background(), fs.currentToken()))

	s.Logout(context.Background())

	state := s.State()
	assert.Nil(t, state.User)
	assert.NoError(t, state.Err)
	assert.Empty(t, s.Token())
	assert.Equal(t, int64(1), fs.logoutCalls.Load())

	// Idempotent with no stored token: no second network revocation.
	s.Logout(context.Background())
	assert.Equal(t, int64(1), fs.logoutCalls.Load())
}

func TestSessionStore_Logout_ServerDownIsSwallowed(t *testing.T) {
	fs := newFakeServer(t)
	s := newTestSession(t, fs)
	require.NoError(t, s.HandleCallback(context.Background(), fs.currentToken()))

	fs.Close()
	s.Logout(context.Background())

	assert.Nil(t, s.State().User)
	assert.Empty(t, s.Token())
}

func TestSessionStore_LogoutWinsOverInflightVerify(t *testing.T) {
	// A verify that started before logout must not resurrect the session
	// when its response lands afterwards.
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user":  model.User{ID: "user-1", Username: "nurse1", Active: true},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := NewSessionStore(SessionStoreOptions{
		BaseURL: server.URL,
		Storage: NewMemoryTokenStorage(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, s.storage.Save("good-token"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Verify(context.Background())
	}()

	<-started
	s.Logout(context.Background())
	close(release)
	<-done

	state := s.State()
	assert.Nil(t, state.User, "stale verify result must not resurrect the session")
	assert.Empty(t, s.Token())
}
