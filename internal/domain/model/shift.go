package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxShiftNameLen        = 50
	maxShiftDescriptionLen = 500
	minShiftDuration       = time.Hour
	minRequiredStaff       = 1
	maxRequiredStaff       = 20
)

// Ward is the hospital unit a shift is scheduled for.
type Ward string

const (
	WardER         Ward = "ER"
	WardICU        Ward = "ICU"
	WardPediatrics Ward = "Pediatrics"
	WardMaternity  Ward = "Maternity"
	WardGeneral    Ward = "General"
	WardSurgery    Ward = "Surgery"
	WardCardiology Ward = "Cardiology"
	WardOncology   Ward = "Oncology"
	WardNeurology  Ward = "Neurology"
)

// Valid reports whether the ward is supported.
func (w Ward) Valid() bool {
	switch w {
	case WardER, WardICU, WardPediatrics, WardMaternity, WardGeneral,
		WardSurgery, WardCardiology, WardOncology, WardNeurology:
		return true
	default:
		return false
	}
}

// ShiftStatus tracks a shift through its lifecycle.
type ShiftStatus string

const (
	ShiftStatusScheduled       ShiftStatus = "scheduled"
	ShiftStatusInProgress      ShiftStatus = "in_progress"
	ShiftStatusCompleted       ShiftStatus = "completed"
	ShiftStatusCancelled       ShiftStatus = "cancelled"
	ShiftStatusPendingApproval ShiftStatus = "pending_approval"
)

// Valid reports whether the shift status is supported.
func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftStatusScheduled, ShiftStatusInProgress, ShiftStatusCompleted,
		ShiftStatusCancelled, ShiftStatusPendingApproval:
		return true
	default:
		return false
	}
}

// Shift represents a staffed time window on a ward.
type Shift struct {
	ID             string      `json:"id"                    bson:"_id,omitempty"`
	Name           string      `json:"name"                  bson:"name"`
	Description    string      `json:"description,omitempty" bson:"description,omitempty"`
	StartTime      time.Time   `json:"start_time"            bson:"start_time"`
	EndTime        time.Time   `json:"end_time"              bson:"end_time"`
	RequiredStaff  int         `json:"required_staff"        bson:"required_staff"`
	AssignedNurses []string    `json:"assigned_nurses"       bson:"assigned_nurses"`
	Status         ShiftStatus `json:"status"                bson:"status"`
	Ward           Ward        `json:"ward"                  bson:"ward"`
	CreatedBy      string      `json:"created_by"            bson:"created_by"`
	ApprovedBy     *string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	CreatedAt      time.Time   `json:"created_at"            bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"            bson:"updated_at"`
}

// Duration returns the shift length.
func (s Shift) Duration() time.Duration { return s.EndTime.Sub(s.StartTime) }

// IsFullyStaffed reports whether the shift has enough assigned nurses.
func (s Shift) IsFullyStaffed() bool { return len(s.AssignedNurses) >= s.RequiredStaff }

// HasNurse reports whether the nurse is already assigned to the shift.
func (s Shift) HasNurse(nurseID string) bool {
	for _, id := range s.AssignedNurses {
		if id == nurseID {
			return true
		}
	}
	return false
}

// ShiftsListOptions controls paging and filtering for listing shifts.
// Cancelled shifts are excluded unless Status explicitly asks for them.
type ShiftsListOptions struct {
	Limit  int
	Offset int
	Ward   *Ward        // exact match
	Status *ShiftStatus // exact match; nil excludes cancelled
	Nurse  *string      // shifts the nurse is assigned to
}

// CreateShiftRequest represents parameters to create a Shift.
type CreateShiftRequest struct {
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	RequiredStaff int         `json:"required_staff"`
	Ward          Ward        `json:"ward"`
	Status        ShiftStatus `json:"status,omitempty"`
}

// Validate validates CreateShiftRequest.
func (r *CreateShiftRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxShiftNameLen {
		return errors.New("name cannot exceed 50 characters")
	}
	if utf8.RuneCountInString(r.Description) > maxShiftDescriptionLen {
		return errors.New("description cannot exceed 500 characters")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return errors.New("start_time must be before end_time")
	}
	if r.EndTime.Sub(r.StartTime) < minShiftDuration {
		return errors.New("shift duration must be at least 1 hour")
	}
	if r.RequiredStaff < minRequiredStaff || r.RequiredStaff > maxRequiredStaff {
		return errors.New("required_staff must be between 1 and 20")
	}
	if !r.Ward.Valid() {
		return errors.New("ward must be one of: ER, ICU, Pediatrics, Maternity, General, Surgery, Cardiology, Oncology, Neurology")
	}
	if r.Status == "" {
		r.Status = ShiftStatusScheduled
	}
	if !r.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

// UpdateShiftRequest represents parameters to update a Shift.
type UpdateShiftRequest struct {
	Name          *string      `json:"name,omitempty"`
	Description   *string      `json:"description,omitempty"`
	StartTime     *time.Time   `json:"start_time,omitempty"`
	EndTime       *time.Time   `json:"end_time,omitempty"`
	RequiredStaff *int         `json:"required_staff,omitempty"`
	Ward          *Ward        `json:"ward,omitempty"`
	Status        *ShiftStatus `json:"status,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateShiftRequest.
func (r *UpdateShiftRequest) HasUpdates() bool {
	return r.Name != nil || r.Description != nil || r.StartTime != nil || r.EndTime != nil ||
		r.RequiredStaff != nil || r.Ward != nil || r.Status != nil
}

// Validate validates UpdateShiftRequest. Time-window consistency against the
// stored shift is checked in the service, which sees both halves.
func (r *UpdateShiftRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if n == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(n) > maxShiftNameLen {
			return errors.New("name cannot exceed 50 characters")
		}
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > maxShiftDescriptionLen {
		return errors.New("description cannot exceed 500 characters")
	}
	if r.RequiredStaff != nil && (*r.RequiredStaff < minRequiredStaff || *r.RequiredStaff > maxRequiredStaff) {
		return errors.New("required_staff must be between 1 and 20")
	}
	if r.Ward != nil && !r.Ward.Valid() {
		return errors.New("ward must be one of: ER, ICU, Pediatrics, Maternity, General, Surgery, Cardiology, Oncology, Neurology")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}
