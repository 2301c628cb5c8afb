package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/nurser/dutyboard/internal/data"
	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/service"
	"github.com/nurser/dutyboard/internal/token"
)

// TokenVerifier is the slice of the auth service the middleware needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, rawToken string) (*service.Verification, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the raw token from the Authorization header.
// The second return is false when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

// RequireAuth returns a middleware that requires a valid bearer token.
// A missing token is a 401; a token that is present but fails verification
// (expired, tampered, revoked, or for a deactivated account) is a 403. The
// distinction lets clients tell "log in" apart from "log in again".
func RequireAuth(authSvc TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "no_token",
					Err:     errNoToken,
				})
				return
			}

			verification, err := authSvc.VerifyToken(r.Context(), raw)
			if err != nil {
				writeVerifyError(w, err)
				return
			}

			ctx := SetClaimsInContext(r.Context(), verification.Claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that requires at least the given role.
// It must run after RequireAuth, which places the claims in the context.
func RequireRole(minRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "no_token",
					Err:     errNoToken,
				})
				return
			}

			if !claims.Role.AtLeast(minRole) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeVerifyError maps token verification failures onto the API contract.
func writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrExpired):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "token_expired", Err: err})
	case errors.Is(err, token.ErrMalformed), errors.Is(err, token.ErrInvalidSignature):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "token_invalid", Err: err})
	case errors.Is(err, service.ErrTokenRevoked):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "token_revoked", Err: err})
	case errors.Is(err, service.ErrUserInactive):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "account_inactive", Err: err})
	case errors.Is(err, data.ErrUserNotFound):
		// The token outlived its user record.
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "token_invalid", Err: errors.New("token subject no longer exists")})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errInternal})
	}
}
