package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nurser/dutyboard/internal/data"
	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/ports"
)

// DutyServiceOptions groups dependencies for DutyService.
type DutyServiceOptions struct {
	Duties   ports.DutyRepository
	Users    ports.UserRepository
	Patients ports.PatientRepository
	Shifts   ports.ShiftRepository
}

// DutyService orchestrates duty assignments. Creating a duty cross-checks
// the referenced nurse, patient and shift since the document store enforces
// no referential integrity of its own.
type DutyService struct {
	duties   ports.DutyRepository
	users    ports.UserRepository
	patients ports.PatientRepository
	shifts   ports.ShiftRepository
}

// NewDutyService constructs a new DutyService.
func NewDutyService(opts DutyServiceOptions) *DutyService {
	return &DutyService{
		duties:   opts.Duties,
		users:    opts.Users,
		patients: opts.Patients,
		shifts:   opts.Shifts,
	}
}

// Create validates the referenced records and inserts a pending duty.
func (s *DutyService) Create(ctx context.Context, req *model.CreateDutyRequest) (*model.Duty, error) {
	if req == nil {
		return nil, apperrors.Validation("create request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	nurse, err := s.users.GetByID(ctx, req.NurseID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, apperrors.NotFoundf("nurse %s not found", req.NurseID)
		}
		return nil, fmt.Errorf("load nurse: %w", err)
	}
	if !nurse.Active {
		return nil, apperrors.Validation("cannot assign a duty to an inactive nurse")
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, data.ErrPatientNotFound) {
			return nil, apperrors.NotFoundf("patient %s not found", req.PatientID)
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !patient.Active {
		return nil, apperrors.Validation("cannot assign a duty for a discharged patient")
	}

	if _, err := s.shifts.GetByID(ctx, req.ShiftID); err != nil {
		if errors.Is(err, data.ErrShiftNotFound) {
			return nil, apperrors.NotFoundf("shift %s not found", req.ShiftID)
		}
		return nil, fmt.Errorf("load shift: %w", err)
	}

	duty, err := s.duties.Create(ctx, req)
	if err != nil {
		if errors.Is(err, data.ErrDutyExists) {
			return nil, apperrors.Conflict("duty already exists for this nurse, patient and shift")
		}
		return nil, err
	}
	return duty, nil
}

// GetByID retrieves a duty by ID.
func (s *DutyService) GetByID(ctx context.Context, id string) (*model.Duty, error) {
	duty, err := s.duties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrDutyNotFound) {
			return nil, apperrors.NotFound("duty not found")
		}
		return nil, err
	}
	return duty, nil
}

// List returns a page of duties plus the total count for the same filters.
func (s *DutyService) List(ctx context.Context, opts *model.DutiesListOptions) ([]model.Duty, int64, error) {
	duties, err := s.duties.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.duties.Count(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return duties, total, nil
}

// Update applies field updates, enforcing the status lifecycle against the
// stored duty. The repository re-checks the previous status on write so a
// concurrent transition cannot slip through between load and update.
func (s *DutyService) Update(ctx context.Context, id string, req *model.UpdateDutyRequest) (*model.Duty, error) {
	if req == nil {
		return nil, apperrors.Validation("update request is required")
	}

	stored, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !stored.Status.CanTransitionTo(*req.Status) {
		return nil, apperrors.Validationf("cannot transition duty from %s to %s", stored.Status, *req.Status)
	}

	duty, err := s.duties.Update(ctx, id, req, stored.Status)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDutyNotFound):
			return nil, apperrors.NotFound("duty not found")
		case errors.Is(err, data.ErrDutyConflict):
			return nil, apperrors.Conflict("duty was modified concurrently, retry")
		default:
			return nil, err
		}
	}
	return duty, nil
}

// CompleteTask marks one task on the duty as done.
func (s *DutyService) CompleteTask(ctx context.Context, id string, taskIndex int, notes string) (*model.Duty, error) {
	duty, err := s.duties.CompleteTask(ctx, id, taskIndex, notes)
	if err != nil {
		if errors.Is(err, data.ErrDutyNotFound) {
			return nil, apperrors.NotFound("duty not found")
		}
		return nil, err
	}
	return duty, nil
}

// Delete removes a duty.
func (s *DutyService) Delete(ctx context.Context, id string) error {
	if err := s.duties.Delete(ctx, id); err != nil {
		if errors.Is(err, data.ErrDutyNotFound) {
			return apperrors.NotFound("duty not found")
		}
		return err
	}
	return nil
}
