package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/nurser/dutyboard/internal/domain/model"
)

// PatientServiceInterface defines the interface for patient service operations.
type PatientServiceInterface interface {
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	List(ctx context.Context, opts *model.PatientsListOptions) ([]model.Patient, int64, error)
	Update(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error)
	Discharge(ctx context.Context, id string, dischargeDate time.Time) (*model.Patient, error)
	AddMedication(ctx context.Context, id string, req *model.AddMedicationRequest) (*model.Patient, error)
}

// PatientHandlers provides HTTP handlers for patient records.
type PatientHandlers struct {
	Svc PatientServiceInterface
}

// List handles GET /api/patients.
// Supported filters: active, room.
func (h *PatientHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultPageSize, maxPageSize)
	opts := &model.PatientsListOptions{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		opts.Active = &active
	}
	if v := r.URL.Query().Get("room"); v != "" {
		opts.Room = &v
	}

	patients, total, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, listResponse[model.Patient]{
		Items:  patients,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /api/patients/{id}.
func (h *PatientHandlers) Get(w http.ResponseWriter, r *http.Request) {
	patient, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}

// Create handles POST /api/patients (admission).
func (h *PatientHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePatientRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	patient, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, patient)
}

// Update handles PUT /api/patients/{id}.
func (h *PatientHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePatientRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	patient, err := h.Svc.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}

// AddMedication handles POST /api/patients/{id}/medications.
func (h *PatientHandlers) AddMedication(w http.ResponseWriter, r *http.Request) {
	var req model.AddMedicationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	patient, err := h.Svc.AddMedication(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}

// Discharge handles POST /api/patients/{id}/discharge. Omitting the date in
// the body discharges as of now.
func (h *PatientHandlers) Discharge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DischargeDate *time.Time `json:"discharge_date"`
	}
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}

	when := time.Time{}
	if req.DischargeDate != nil {
		when = *req.DischargeDate
	}

	patient, err := h.Svc.Discharge(r.Context(), r.PathValue("id"), when)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, patient)
}
