package model

import (
	"errors"
	"strings"
	"time"
)

// DutyStatus tracks a duty assignment through its lifecycle.
type DutyStatus string

const (
	DutyStatusPending    DutyStatus = "pending"
	DutyStatusInProgress DutyStatus = "in_progress"
	DutyStatusCompleted  DutyStatus = "completed"
	DutyStatusCancelled  DutyStatus = "cancelled"
)

// Valid reports whether the duty status is supported.
func (s DutyStatus) Valid() bool {
	switch s {
	case DutyStatusPending, DutyStatusInProgress, DutyStatusCompleted, DutyStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// step. Completed must be reached through in_progress; cancelled is terminal.
func (s DutyStatus) CanTransitionTo(next DutyStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case DutyStatusPending:
		return next == DutyStatusInProgress || next == DutyStatusCancelled
	case DutyStatusInProgress:
		return next == DutyStatusCompleted || next == DutyStatusCancelled
	case DutyStatusCompleted, DutyStatusCancelled:
		return false
	default:
		return false
	}
}

// TaskPriority ranks tasks within a duty.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Valid reports whether the task priority is supported.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	default:
		return false
	}
}

// Task is a single item of care work attached to a duty.
type Task struct {
	Description string       `json:"description"            bson:"description"`
	Priority    TaskPriority `json:"priority"               bson:"priority"`
	Completed   bool         `json:"completed"              bson:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Notes       string       `json:"notes,omitempty"        bson:"notes,omitempty"`
}

// Duty assigns a nurse to a patient within a shift.
type Duty struct {
	ID        string     `json:"id"                 bson:"_id,omitempty"`
	NurseID   string     `json:"nurse_id"           bson:"nurse_id"`
	PatientID string     `json:"patient_id"         bson:"patient_id"`
	ShiftID   string     `json:"shift_id"           bson:"shift_id"`
	Tasks     []Task     `json:"tasks"              bson:"tasks"`
	Status    DutyStatus `json:"status"             bson:"status"`
	StartTime time.Time  `json:"start_time"         bson:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" bson:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"         bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"         bson:"updated_at"`
}

// DutiesListOptions controls paging and filtering for listing duties.
type DutiesListOptions struct {
	Limit   int
	Offset  int
	Nurse   *string     // exact match on nurse id
	Patient *string     // exact match on patient id
	Shift   *string     // exact match on shift id
	Status  *DutyStatus // exact match
}

// CreateDutyRequest represents parameters to create a Duty.
type CreateDutyRequest struct {
	NurseID   string     `json:"nurse_id"`
	PatientID string     `json:"patient_id"`
	ShiftID   string     `json:"shift_id"`
	Tasks     []Task     `json:"tasks,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Validate validates CreateDutyRequest.
func (r *CreateDutyRequest) Validate() error {
	if strings.TrimSpace(r.NurseID) == "" {
		return errors.New("nurse_id is required")
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient_id is required")
	}
	if strings.TrimSpace(r.ShiftID) == "" {
		return errors.New("shift_id is required")
	}
	if r.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	if r.EndTime != nil && !r.StartTime.Before(*r.EndTime) {
		return errors.New("start_time must be before end_time")
	}
	for i := range r.Tasks {
		if err := validateTask(&r.Tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateTask checks a task entry and defaults its priority to medium.
func validateTask(t *Task) error {
	if strings.TrimSpace(t.Description) == "" {
		return errors.New("task description is required and cannot be empty")
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	if !t.Priority.Valid() {
		return errors.New("task priority must be one of: low, medium, high, critical")
	}
	return nil
}

// UpdateDutyRequest represents parameters to update a Duty.
type UpdateDutyRequest struct {
	Tasks     *[]Task     `json:"tasks,omitempty"`
	Status    *DutyStatus `json:"status,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateDutyRequest.
func (r *UpdateDutyRequest) HasUpdates() bool {
	return r.Tasks != nil || r.Status != nil || r.StartTime != nil || r.EndTime != nil
}

// Validate validates UpdateDutyRequest. Status transition legality is checked
// in the service against the stored duty.
func (r *UpdateDutyRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be one of: pending, in_progress, completed, cancelled")
	}
	if r.Tasks != nil {
		tasks := *r.Tasks
		for i := range tasks {
			if err := validateTask(&tasks[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
