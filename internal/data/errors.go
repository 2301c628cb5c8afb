package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// User repository sentinels.
	ErrUserNotFound    = errors.New("user not found")
	ErrUserEmailExists = errors.New("user email already exists")

	// Shift repository sentinels.
	ErrShiftNotFound   = errors.New("shift not found")
	ErrShiftNameExists = errors.New("shift name already exists")
	ErrNurseAssigned   = errors.New("nurse already assigned to shift")
	ErrNurseNotOnShift = errors.New("nurse not assigned to shift")
	ErrShiftFull       = errors.New("shift already fully staffed")

	// Duty repository sentinels.
	ErrDutyNotFound = errors.New("duty not found")
	ErrDutyExists   = errors.New("duty already exists for nurse, patient and shift")
	ErrDutyConflict = errors.New("duty was modified concurrently")

	// Patient repository sentinels.
	ErrPatientNotFound           = errors.New("patient not found")
	ErrMedicalRecordNumberExists = errors.New("medical record number already exists")
)
