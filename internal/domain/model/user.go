//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
)

const (
	maxNameLen          = 100
	maxLicenseNumberLen = 50
)

// Specialization is the clinical area a nurse is trained for.
type Specialization string

const (
	SpecializationER         Specialization = "ER"
	SpecializationOR         Specialization = "OR"
	SpecializationPediatrics Specialization = "Pediatrics"
	SpecializationICU        Specialization = "ICU"
	SpecializationGeneral    Specialization = "General"
	SpecializationCardiology Specialization = "Cardiology"
)

// Valid reports whether the specialization is supported.
func (s Specialization) Valid() bool {
	switch s {
	case SpecializationER, SpecializationOR, SpecializationPediatrics,
		SpecializationICU, SpecializationGeneral, SpecializationCardiology:
		return true
	default:
		return false
	}
}

// User represents a staff member account. Users are created on first OAuth
// handshake and are never hard-deleted; deactivation flips Active instead.
type User struct {
	ID             string          `json:"id"                       bson:"_id,omitempty"`
	GithubID       string          `json:"github_id,omitempty"      bson:"github_id,omitempty"`
	Username       string          `json:"username"                 bson:"username"`
	Email          string          `json:"email"                    bson:"email"`
	DisplayName    string          `json:"display_name"             bson:"display_name"`
	Role           domainauth.Role `json:"role"                     bson:"role"`
	LicenseNumber  string          `json:"license_number,omitempty" bson:"license_number,omitempty"`
	Specialization *Specialization `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Active         bool            `json:"active"                   bson:"active"`
	LastLogin      *time.Time      `json:"last_login,omitempty"     bson:"last_login,omitempty"`
	CreatedAt      time.Time       `json:"created_at"               bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"               bson:"updated_at"`
}

// UsersListOptions controls paging and filtering for listing users.
type UsersListOptions struct {
	Limit  int
	Offset int
	Role   *domainauth.Role // exact match
	Active *bool            // exact match
}

// UpdateUserRequest represents profile fields a user (or an admin) may change.
// Role changes are admin-only and enforced in the service layer.
type UpdateUserRequest struct {
	DisplayName    *string          `json:"display_name,omitempty"`
	LicenseNumber  *string          `json:"license_number,omitempty"`
	Specialization *Specialization  `json:"specialization,omitempty"`
	Role           *domainauth.Role `json:"role,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateUserRequest.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.DisplayName != nil || r.LicenseNumber != nil || r.Specialization != nil || r.Role != nil
}

// Validate validates UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.DisplayName != nil {
		n := strings.TrimSpace(*r.DisplayName)
		if n == "" {
			return errors.New("display_name cannot be empty")
		}
		if utf8.RuneCountInString(n) > maxNameLen {
			return errors.New("display_name cannot exceed 100 characters")
		}
	}
	if r.LicenseNumber != nil && utf8.RuneCountInString(*r.LicenseNumber) > maxLicenseNumberLen {
		return errors.New("license_number cannot exceed 50 characters")
	}
	if r.Specialization != nil && !r.Specialization.Valid() {
		return errors.New("specialization must be one of: ER, OR, Pediatrics, ICU, General, Cardiology")
	}
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be one of: nurse, head_nurse, admin")
	}
	return nil
}
