package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxRoomNumberLen = 20

// Gender is the patient's recorded gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender value is supported.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// PatientStatus tracks where the patient is in their stay.
type PatientStatus string

const (
	PatientStatusAdmitted    PatientStatus = "admitted"
	PatientStatusDischarged  PatientStatus = "discharged"
	PatientStatusTransferred PatientStatus = "transferred"
	PatientStatusCritical    PatientStatus = "critical"
)

// Valid reports whether the patient status is supported.
func (s PatientStatus) Valid() bool {
	switch s {
	case PatientStatusAdmitted, PatientStatusDischarged, PatientStatusTransferred, PatientStatusCritical:
		return true
	default:
		return false
	}
}

// AllergySeverity grades a recorded allergy.
type AllergySeverity string

const (
	AllergySeverityMild     AllergySeverity = "mild"
	AllergySeverityModerate AllergySeverity = "moderate"
	AllergySeveritySevere   AllergySeverity = "severe"
)

// Valid reports whether the severity value is supported.
func (s AllergySeverity) Valid() bool {
	return s == AllergySeverityMild || s == AllergySeverityModerate || s == AllergySeveritySevere
}

// Allergy is one entry on the patient's allergy list.
type Allergy struct {
	Name     string          `json:"name"     bson:"name"`
	Severity AllergySeverity `json:"severity" bson:"severity"`
}

// Validate validates an Allergy.
func (a *Allergy) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("allergy name is required")
	}
	if !a.Severity.Valid() {
		return errors.New("allergy severity must be one of: mild, moderate, severe")
	}
	return nil
}

// Medication is one entry on the patient's medication list.
type Medication struct {
	Name         string `json:"name"                    bson:"name"`
	Dosage       string `json:"dosage"                  bson:"dosage"`
	Frequency    string `json:"frequency"               bson:"frequency"`
	Route        string `json:"route,omitempty"         bson:"route,omitempty"`
	PrescribedBy string `json:"prescribed_by,omitempty" bson:"prescribed_by,omitempty"`
}

// Validate validates a Medication.
func (m *Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("medication name is required")
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return errors.New("medication dosage is required")
	}
	if strings.TrimSpace(m.Frequency) == "" {
		return errors.New("medication frequency is required")
	}
	return nil
}

// Patient represents an admitted patient.
type Patient struct {
	ID                  string        `json:"id"                            bson:"_id,omitempty"`
	FirstName           string        `json:"first_name"                    bson:"first_name"`
	LastName            string        `json:"last_name"                     bson:"last_name"`
	DateOfBirth         time.Time     `json:"date_of_birth"                 bson:"date_of_birth"`
	Gender              Gender        `json:"gender"                        bson:"gender"`
	MedicalRecordNumber string        `json:"medical_record_number"         bson:"medical_record_number"`
	RoomNumber          string        `json:"room_number"                   bson:"room_number"`
	AdmissionDate       time.Time     `json:"admission_date"                bson:"admission_date"`
	PrimaryDiagnosis    string        `json:"primary_diagnosis"             bson:"primary_diagnosis"`
	SecondaryDiagnoses  []string      `json:"secondary_diagnoses,omitempty" bson:"secondary_diagnoses,omitempty"`
	Allergies           []Allergy     `json:"allergies,omitempty"           bson:"allergies,omitempty"`
	Medications         []Medication  `json:"medications,omitempty"         bson:"medications,omitempty"`
	SpecialNeeds        []string      `json:"special_needs,omitempty"       bson:"special_needs,omitempty"`
	Status              PatientStatus `json:"status"                        bson:"status"`
	DischargeDate       *time.Time    `json:"discharge_date,omitempty"      bson:"discharge_date,omitempty"`
	Active              bool          `json:"active"                        bson:"active"`
	CreatedAt           time.Time     `json:"created_at"                    bson:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"                    bson:"updated_at"`
}

// PatientsListOptions controls paging and filtering for listing patients.
type PatientsListOptions struct {
	Limit  int
	Offset int
	Active *bool   // exact match
	Room   *string // exact match on room number
}

// CreatePatientRequest represents parameters to admit a Patient.
type CreatePatientRequest struct {
	FirstName           string        `json:"first_name"`
	LastName            string        `json:"last_name"`
	DateOfBirth         time.Time     `json:"date_of_birth"`
	Gender              Gender        `json:"gender"`
	MedicalRecordNumber string        `json:"medical_record_number"`
	RoomNumber          string        `json:"room_number"`
	AdmissionDate       time.Time     `json:"admission_date"`
	PrimaryDiagnosis    string        `json:"primary_diagnosis"`
	SecondaryDiagnoses  []string      `json:"secondary_diagnoses,omitempty"`
	Allergies           []Allergy     `json:"allergies,omitempty"`
	Medications         []Medication  `json:"medications,omitempty"`
	SpecialNeeds        []string      `json:"special_needs,omitempty"`
	Status              PatientStatus `json:"status,omitempty"`
}

// Validate validates CreatePatientRequest.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return errors.New("first_name is required and cannot be empty")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return errors.New("last_name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.FirstName) > maxNameLen || utf8.RuneCountInString(r.LastName) > maxNameLen {
		return errors.New("name cannot exceed 100 characters")
	}
	if r.DateOfBirth.IsZero() {
		return errors.New("date_of_birth is required")
	}
	if !r.Gender.Valid() {
		return errors.New("gender must be one of: male, female")
	}
	if strings.TrimSpace(r.MedicalRecordNumber) == "" {
		return errors.New("medical_record_number is required")
	}
	if strings.TrimSpace(r.RoomNumber) == "" {
		return errors.New("room_number is required")
	}
	if utf8.RuneCountInString(r.RoomNumber) > maxRoomNumberLen {
		return errors.New("room_number cannot exceed 20 characters")
	}
	if r.AdmissionDate.IsZero() {
		return errors.New("admission_date is required")
	}
	if r.AdmissionDate.Before(r.DateOfBirth) {
		return errors.New("admission_date must be after date_of_birth")
	}
	if strings.TrimSpace(r.PrimaryDiagnosis) == "" {
		return errors.New("primary_diagnosis is required and cannot be empty")
	}
	for i := range r.Allergies {
		if err := r.Allergies[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Medications {
		if err := r.Medications[i].Validate(); err != nil {
			return err
		}
	}
	if r.Status == "" {
		r.Status = PatientStatusAdmitted
	}
	if !r.Status.Valid() {
		return errors.New("status must be one of: admitted, discharged, transferred, critical")
	}
	return nil
}

// UpdatePatientRequest represents parameters to update a Patient.
type UpdatePatientRequest struct {
	FirstName        *string        `json:"first_name,omitempty"`
	LastName         *string        `json:"last_name,omitempty"`
	RoomNumber       *string        `json:"room_number,omitempty"`
	PrimaryDiagnosis *string        `json:"primary_diagnosis,omitempty"`
	Status           *PatientStatus `json:"status,omitempty"`
}

// HasUpdates reports whether any field is set in UpdatePatientRequest.
func (r *UpdatePatientRequest) HasUpdates() bool {
	return r.FirstName != nil || r.LastName != nil || r.RoomNumber != nil ||
		r.PrimaryDiagnosis != nil || r.Status != nil
}

// Validate validates UpdatePatientRequest.
func (r *UpdatePatientRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.FirstName != nil && strings.TrimSpace(*r.FirstName) == "" {
		return errors.New("first_name cannot be empty")
	}
	if r.LastName != nil && strings.TrimSpace(*r.LastName) == "" {
		return errors.New("last_name cannot be empty")
	}
	if r.RoomNumber != nil {
		if strings.TrimSpace(*r.RoomNumber) == "" {
			return errors.New("room_number cannot be empty")
		}
		if utf8.RuneCountInString(*r.RoomNumber) > maxRoomNumberLen {
			return errors.New("room_number cannot exceed 20 characters")
		}
	}
	if r.PrimaryDiagnosis != nil && strings.TrimSpace(*r.PrimaryDiagnosis) == "" {
		return errors.New("primary_diagnosis cannot be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be one of: admitted, discharged, transferred, critical")
	}
	return nil
}

// AddMedicationRequest adds one medication to a patient's record.
type AddMedicationRequest struct {
	Medication Medication `json:"medication"`
}

// Validate validates AddMedicationRequest.
func (r *AddMedicationRequest) Validate() error {
	return r.Medication.Validate()
}
