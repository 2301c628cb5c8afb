package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nurser/dutyboard/internal/data"
	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/ports"
)

// ShiftServiceOptions groups dependencies for ShiftService.
type ShiftServiceOptions struct {
	Shifts ports.ShiftRepository
	Users  ports.UserRepository
}

// ShiftService orchestrates shift scheduling and roster management.
type ShiftService struct {
	shifts ports.ShiftRepository
	users  ports.UserRepository
}

// NewShiftService constructs a new ShiftService.
func NewShiftService(opts ShiftServiceOptions) *ShiftService {
	return &ShiftService{shifts: opts.Shifts, users: opts.Users}
}

// Create schedules a new shift.
func (s *ShiftService) Create(ctx context.Context, req *model.CreateShiftRequest, createdBy string) (*model.Shift, error) {
	shift, err := s.shifts.Create(ctx, req, createdBy)
	if err != nil {
		return nil, mapShiftError(err)
	}
	return shift, nil
}

// GetByID retrieves a shift by ID.
func (s *ShiftService) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return nil, mapShiftError(err)
	}
	return shift, nil
}

// List returns a page of shifts plus the total count for the same filters.
func (s *ShiftService) List(ctx context.Context, opts *model.ShiftsListOptions) ([]model.Shift, int64, error) {
	shifts, err := s.shifts.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.shifts.Count(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return shifts, total, nil
}

// Update applies field updates. The time window is validated against the
// stored shift since a request may move only one of its ends, and the staff
// requirement can never drop below the nurses already assigned.
func (s *ShiftService) Update(ctx context.Context, id string, req *model.UpdateShiftRequest) (*model.Shift, error) {
	if req == nil {
		return nil, apperrors.Validation("update request is required")
	}

	stored, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return nil, mapShiftError(err)
	}

	start := stored.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := stored.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !start.Before(end) {
		return nil, apperrors.Validation("start_time must be before end_time")
	}
	if end.Sub(start) < time.Hour {
		return nil, apperrors.Validation("shift duration must be at least 1 hour")
	}
	if req.RequiredStaff != nil && *req.RequiredStaff < len(stored.AssignedNurses) {
		return nil, apperrors.Validationf("required_staff cannot be below the %d nurses already assigned", len(stored.AssignedNurses))
	}

	shift, err := s.shifts.Update(ctx, id, req)
	if err != nil {
		return nil, mapShiftError(err)
	}
	return shift, nil
}

// Approve moves a pending_approval shift to scheduled, recording the approver.
func (s *ShiftService) Approve(ctx context.Context, id, approvedBy string) (*model.Shift, error) {
	shift, err := s.shifts.SetApproval(ctx, id, approvedBy)
	if err != nil {
		if errors.Is(err, data.ErrShiftNotFound) {
			// Either the shift does not exist or it is not awaiting approval.
			if _, getErr := s.shifts.GetByID(ctx, id); getErr == nil {
				return nil, apperrors.Conflict("shift is not awaiting approval")
			}
			return nil, apperrors.NotFound("shift not found")
		}
		return nil, err
	}
	return shift, nil
}

// AssignNurse adds an active nurse to the shift roster.
func (s *ShiftService) AssignNurse(ctx context.Context, shiftID, nurseID string) (*model.Shift, error) {
	nurse, err := s.users.GetByID(ctx, nurseID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, apperrors.NotFoundf("nurse %s not found", nurseID)
		}
		return nil, fmt.Errorf("load nurse: %w", err)
	}
	if !nurse.Active {
		return nil, apperrors.Validation("cannot assign an inactive nurse")
	}

	shift, err := s.shifts.AssignNurse(ctx, shiftID, nurseID)
	if err != nil {
		return nil, mapShiftError(err)
	}
	return shift, nil
}

// UnassignNurse removes a nurse from the shift roster.
func (s *ShiftService) UnassignNurse(ctx context.Context, shiftID, nurseID string) (*model.Shift, error) {
	shift, err := s.shifts.UnassignNurse(ctx, shiftID, nurseID)
	if err != nil {
		return nil, mapShiftError(err)
	}
	return shift, nil
}

// Delete removes a shift outright. Cancelling is usually preferable since it
// preserves history; deletion exists for shifts created by mistake.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	if err := s.shifts.Delete(ctx, id); err != nil {
		return mapShiftError(err)
	}
	return nil
}

// mapShiftError converts repository sentinels to typed application errors.
func mapShiftError(err error) error {
	switch {
	case errors.Is(err, data.ErrShiftNotFound):
		return apperrors.NotFound("shift not found")
	case errors.Is(err, data.ErrShiftNameExists):
		return apperrors.Conflict("shift name already exists")
	case errors.Is(err, data.ErrNurseAssigned):
		return apperrors.Conflict("nurse already assigned to shift")
	case errors.Is(err, data.ErrNurseNotOnShift):
		return apperrors.Conflict("nurse is not assigned to shift")
	case errors.Is(err, data.ErrShiftFull):
		return apperrors.Conflict("shift already fully staffed")
	default:
		return err
	}
}
