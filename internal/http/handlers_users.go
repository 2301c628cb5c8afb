package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserServiceInterface defines the interface for user service operations.
type UserServiceInterface interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, opts *model.UsersListOptions) ([]model.User, int64, error)
	Update(ctx context.Context, actor domainauth.Claims, id string, req *model.UpdateUserRequest) (*model.User, error)
	SetActive(ctx context.Context, actor domainauth.Claims, id string, active bool) (*model.User, error)
}

// UserHandlers provides HTTP handlers for user management.
type UserHandlers struct {
	Svc UserServiceInterface
}

// List handles GET /api/users.
// Supported filters: role, active.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultPageSize, maxPageSize)
	opts := &model.UsersListOptions{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("role"); v != "" {
		role := domainauth.Role(v)
		if !role.Valid() {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_role", Err: errInvalidRole})
			return
		}
		opts.Role = &role
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		opts.Active = &active
	}

	users, total, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, listResponse[model.User]{
		Items:  users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /api/users/{id}.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Me handles GET /api/users/me, resolving the caller from their token.
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_token", Err: errNoToken})
		return
	}

	user, err := h.Svc.GetByID(r.Context(), claims.UserID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Users may edit their own profile;
// role changes and editing other users need elevated rights, enforced in
// the service layer against the caller's claims.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_token", Err: errNoToken})
		return
	}

	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.Svc.Update(r.Context(), claims, r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// SetActive handles PATCH /api/users/{id}/active (admin only at the route
// level; the service also blocks self-deactivation).
func (h *UserHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_token", Err: errNoToken})
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: errActiveRequired})
		return
	}

	user, err := h.Svc.SetActive(r.Context(), claims, r.PathValue("id"), *req.Active)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// listResponse is the common paged envelope for collection endpoints.
type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
