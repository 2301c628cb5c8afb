package service

import (
	"context"
	"errors"
	"time"

	"github.com/nurser/dutyboard/internal/data"
	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/ports"
)

// PatientServiceOptions groups dependencies for PatientService.
type PatientServiceOptions struct {
	Patients ports.PatientRepository
}

// PatientService handles patient admission, updates and discharge.
type PatientService struct {
	patients ports.PatientRepository
}

// NewPatientService constructs a new PatientService.
func NewPatientService(opts PatientServiceOptions) *PatientService {
	return &PatientService{patients: opts.Patients}
}

// Create admits a new patient.
func (s *PatientService) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Create(ctx, req)
	if err != nil {
		if errors.Is(err, data.ErrMedicalRecordNumberExists) {
			return nil, apperrors.Conflict("medical record number already exists")
		}
		return nil, err
	}
	return patient, nil
}

// GetByID retrieves a patient by ID.
func (s *PatientService) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrPatientNotFound) {
			return nil, apperrors.NotFound("patient not found")
		}
		return nil, err
	}
	return patient, nil
}

// List returns a page of patients plus the total count for the same filters.
func (s *PatientService) List(ctx context.Context, opts *model.PatientsListOptions) ([]model.Patient, int64, error) {
	patients, err := s.patients.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.patients.Count(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// Update applies record updates.
func (s *PatientService) Update(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, data.ErrPatientNotFound) {
			return nil, apperrors.NotFound("patient not found")
		}
		return nil, err
	}
	return patient, nil
}

// AddMedication appends one medication to the patient's record.
func (s *PatientService) AddMedication(ctx context.Context, id string, req *model.AddMedicationRequest) (*model.Patient, error) {
	if req == nil {
		return nil, apperrors.Validation("medication is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	patient, err := s.patients.AddMedication(ctx, id, req.Medication)
	if err != nil {
		if errors.Is(err, data.ErrPatientNotFound) {
			return nil, apperrors.NotFound("patient not found")
		}
		return nil, err
	}
	return patient, nil
}

// Discharge closes out the patient's stay. A zero dischargeDate means "now";
// a date before admission is rejected.
func (s *PatientService) Discharge(ctx context.Context, id string, dischargeDate time.Time) (*model.Patient, error) {
	stored, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dischargeDate.IsZero() && dischargeDate.Before(stored.AdmissionDate) {
		return nil, apperrors.Validation("discharge_date must be after admission_date")
	}

	patient, err := s.patients.Discharge(ctx, id, dischargeDate)
	if err != nil {
		if errors.Is(err, data.ErrPatientNotFound) {
			return nil, apperrors.NotFound("patient not found")
		}
		return nil, err
	}
	return patient, nil
}
