package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nurser/dutyboard/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, code string) (*service.CompleteLoginResult, error)
	VerifyToken(ctx context.Context, rawToken string) (*service.Verification, error)
	Logout(ctx context.Context, rawToken string)
}

// AuthHandlers provides HTTP handlers for the login handshake and token lifecycle.
type AuthHandlers struct {
	Svc AuthServiceInterface
	// ClientBaseURL is the browser-facing frontend origin the callback
	// redirects back to, e.g. "http://localhost:5173".
	ClientBaseURL string
	Logger        *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login initiates the provider handshake.
// GET /auth/github.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.BeginLogin(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		h.redirectLoginFailed(w, r)
		return
	}

	h.setStateCookie(w, r, result.State)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the provider handshake.
// GET /auth/github/callback?code=<code>&state=<state>.
//
// Every failure redirects back to the client's login page rather than
// rendering JSON: the user is mid-browser-flow, not holding an API client.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.redirectLoginFailed(w, r)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		h.logger().WarnContext(r.Context(), "state mismatch on auth callback")
		h.redirectLoginFailed(w, r)
		return
	}
	h.clearStateCookie(w, r)

	result, err := h.Svc.CompleteLogin(r.Context(), code)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		h.redirectLoginFailed(w, r)
		return
	}

	u, err := url.Parse(h.ClientBaseURL + "/auth/callback")
	if err != nil {
		h.redirectLoginFailed(w, r)
		return
	}
	q := url.Values{}
	q.Set("token", result.Token)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// Verify reports whether the presented token is still good and who it belongs to.
// GET /auth/verify.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	raw, ok := BearerToken(r)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "no_token",
			Err:     errNoToken,
		})
		return
	}

	verification, err := h.Svc.VerifyToken(r.Context(), raw)
	if err != nil {
		writeVerifyError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  verification.User,
	})
}

// Logout revokes the presented token. Always succeeds from the client's
// point of view: with no token, a bad token, or a revocation backend outage
// the client still discards its copy.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := BearerToken(r); ok {
		h.Svc.Logout(r.Context(), raw)
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// redirectLoginFailed sends the browser back to the client login page.
func (h *AuthHandlers) redirectLoginFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.ClientBaseURL+"/login?error=auth_failed", http.StatusFound)
}

// setStateCookie stores the OAuth state for callback verification.
func (h *AuthHandlers) setStateCookie(w http.ResponseWriter, r *http.Request, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

func (h *AuthHandlers) clearStateCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
