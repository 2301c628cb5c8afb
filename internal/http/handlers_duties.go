package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nurser/dutyboard/internal/domain/model"
)

// DutyServiceInterface defines the interface for duty service operations.
type DutyServiceInterface interface {
	Create(ctx context.Context, req *model.CreateDutyRequest) (*model.Duty, error)
	GetByID(ctx context.Context, id string) (*model.Duty, error)
	List(ctx context.Context, opts *model.DutiesListOptions) ([]model.Duty, int64, error)
	Update(ctx context.Context, id string, req *model.UpdateDutyRequest) (*model.Duty, error)
	CompleteTask(ctx context.Context, id string, taskIndex int, notes string) (*model.Duty, error)
	Delete(ctx context.Context, id string) error
}

// DutyHandlers provides HTTP handlers for duty assignments.
type DutyHandlers struct {
	Svc DutyServiceInterface
}

// List handles GET /api/duties.
// Supported filters: nurse, patient, shift, status.
func (h *DutyHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultPageSize, maxPageSize)
	opts := &model.DutiesListOptions{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("nurse"); v != "" {
		opts.Nurse = &v
	}
	if v := r.URL.Query().Get("patient"); v != "" {
		opts.Patient = &v
	}
	if v := r.URL.Query().Get("shift"); v != "" {
		opts.Shift = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.DutyStatus(v)
		opts.Status = &status
	}

	duties, total, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, listResponse[model.Duty]{
		Items:  duties,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /api/duties/{id}.
func (h *DutyHandlers) Get(w http.ResponseWriter, r *http.Request) {
	duty, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, duty)
}

// Create handles POST /api/duties.
func (h *DutyHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDutyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	duty, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, duty)
}

// Update handles PUT /api/duties/{id}. Status changes are validated against
// the duty lifecycle; a concurrent transition surfaces as a conflict.
func (h *DutyHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateDutyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	duty, err := h.Svc.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, duty)
}

// CompleteTask handles POST /api/duties/{id}/tasks/{index}/complete.
func (h *DutyHandlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_task_index", Err: errTaskIndex})
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}

	duty, err := h.Svc.CompleteTask(r.Context(), r.PathValue("id"), index, req.Notes)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, duty)
}

// Delete handles DELETE /api/duties/{id}.
func (h *DutyHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
