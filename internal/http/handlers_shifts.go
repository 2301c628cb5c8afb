package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

// ShiftServiceInterface defines the interface for shift service operations.
type ShiftServiceInterface interface {
	Create(ctx context.Context, req *model.CreateShiftRequest, createdBy string) (*model.Shift, error)
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	List(ctx context.Context, opts *model.ShiftsListOptions) ([]model.Shift, int64, error)
	Update(ctx context.Context, id string, req *model.UpdateShiftRequest) (*model.Shift, error)
	Approve(ctx context.Context, id, approvedBy string) (*model.Shift, error)
	AssignNurse(ctx context.Context, shiftID, nurseID string) (*model.Shift, error)
	UnassignNurse(ctx context.Context, shiftID, nurseID string) (*model.Shift, error)
	Delete(ctx context.Context, id string) error
}

// ShiftHandlers provides HTTP handlers for shift management.
type ShiftHandlers struct {
	Svc ShiftServiceInterface
}

// List handles GET /api/shifts.
// Supported filters: ward, status, nurse. Cancelled shifts are excluded
// unless asked for explicitly. Staff below admin only see shifts they are
// rostered on, whatever the nurse filter says.
func (h *ShiftHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultPageSize, maxPageSize)
	opts := &model.ShiftsListOptions{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("ward"); v != "" {
		ward := model.Ward(v)
		opts.Ward = &ward
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.ShiftStatus(v)
		opts.Status = &status
	}
	if v := r.URL.Query().Get("nurse"); v != "" {
		opts.Nurse = &v
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok && !claims.Role.AtLeast(domainauth.RoleAdmin) {
		self := claims.UserID
		opts.Nurse = &self
	}

	shifts, total, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, listResponse[model.Shift]{
		Items:  shifts,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /api/shifts/{id}.
func (h *ShiftHandlers) Get(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, shift)
}

// Create handles POST /api/shifts. The creator is taken from the token.
func (h *ShiftHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_token", Err: errNoToken})
		return
	}

	var req model.CreateShiftRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	shift, err := h.Svc.Create(r.Context(), &req, claims.UserID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, shift)
}

// Update handles PUT /api/shifts/{id}.
func (h *ShiftHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateShiftRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	shift, err := h.Svc.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, shift)
}

// Approve handles POST /api/shifts/{id}/approve. The approver is taken
// from the token; only pending shifts can be approved.
func (h *ShiftHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "no_token", Err: errNoToken})
		return
	}

	shift, err := h.Svc.Approve(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, shift)
}

// AssignNurse handles POST /api/shifts/{id}/nurses.
func (h *ShiftHandlers) AssignNurse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NurseID string `json:"nurse_id"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.NurseID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: errNurseIDRequired})
		return
	}

	shift, err := h.Svc.AssignNurse(r.Context(), r.PathValue("id"), req.NurseID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, shift)
}

// UnassignNurse handles DELETE /api/shifts/{id}/nurses/{nurseID}.
func (h *ShiftHandlers) UnassignNurse(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Svc.UnassignNurse(r.Context(), r.PathValue("id"), r.PathValue("nurseID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, shift)
}

// Delete handles DELETE /api/shifts/{id}.
func (h *ShiftHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
