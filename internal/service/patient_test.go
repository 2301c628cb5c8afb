package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/testutil"
)

func newTestPatientService() (*PatientService, *fakePatientRepo) {
	repo := newFakePatientRepo()
	return NewPatientService(PatientServiceOptions{Patients: repo}), repo
}

func patientCreateReq(mrn string) *model.CreatePatientRequest {
	return &model.CreatePatientRequest{
		FirstName:           "Jane",
		LastName:            "Doe",
		DateOfBirth:         time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC),
		Gender:              model.GenderFemale,
		MedicalRecordNumber: mrn,
		RoomNumber:          "204B",
		AdmissionDate:       time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
		PrimaryDiagnosis:    "Community-acquired pneumonia",
	}
}

func TestPatientService_Create(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-001"))
	require.NoError(t, err)
	assert.True(t, patient.Active)
	assert.Nil(t, patient.DischargeDate)
	assert.Equal(t, model.PatientStatusAdmitted, patient.Status, "status defaults to admitted")
}

func TestPatientService_Create_RequiresPrimaryDiagnosis(t *testing.T) {
	svc, _ := newTestPatientService()

	req := patientCreateReq("MRN-010")
	req.PrimaryDiagnosis = "  "
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatientService_Create_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestPatientService()

	req := patientCreateReq("MRN-011")
	req.Status = model.PatientStatus("resting")
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatientService_Create_ValidatesAllergies(t *testing.T) {
	svc, _ := newTestPatientService()

	req := patientCreateReq("MRN-012")
	req.Allergies = []model.Allergy{{Name: "Penicillin", Severity: "lethal"}}
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))

	req = patientCreateReq("MRN-012")
	req.Allergies = []model.Allergy{{Name: "Penicillin", Severity: model.AllergySeveritySevere}}
	patient, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, patient.Allergies, 1)
	assert.Equal(t, model.AllergySeveritySevere, patient.Allergies[0].Severity)
}

func TestPatientService_Create_DuplicateMRN(t *testing.T) {
	svc, _ := newTestPatientService()

	_, err := svc.Create(context.Background(), patientCreateReq("MRN-001"))
	require.NoError(t, err)

	req := patientCreateReq("MRN-001")
	req.FirstName = "Other"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsConflict(err))
}

func TestPatientService_Update(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-002"))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), patient.ID, &model.UpdatePatientRequest{
		RoomNumber: testutil.StringPtr("ICU-3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ICU-3", updated.RoomNumber)

	_, err = svc.Update(context.Background(), "missing", &model.UpdatePatientRequest{
		RoomNumber: testutil.StringPtr("ICU-3"),
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPatientService_Discharge(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-003"))
	require.NoError(t, err)

	when := patient.AdmissionDate.Add(48 * time.Hour)
	discharged, err := svc.Discharge(context.Background(), patient.ID, when)
	require.NoError(t, err)
	assert.False(t, discharged.Active)
	require.NotNil(t, discharged.DischargeDate)
	assert.True(t, discharged.DischargeDate.Equal(when))
	assert.Equal(t, model.PatientStatusDischarged, discharged.Status)
}

func TestPatientService_Discharge_ZeroDateMeansNow(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-004"))
	require.NoError(t, err)

	discharged, err := svc.Discharge(context.Background(), patient.ID, time.Time{})
	require.NoError(t, err)
	assert.False(t, discharged.Active)
	require.NotNil(t, discharged.DischargeDate)
	assert.WithinDuration(t, time.Now(), *discharged.DischargeDate, 5*time.Second)
}

func TestPatientService_Discharge_BeforeAdmission(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-005"))
	require.NoError(t, err)

	_, err = svc.Discharge(context.Background(), patient.ID, patient.AdmissionDate.Add(-time.Hour))
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatientService_Discharge_Idempotent(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-006"))
	require.NoError(t, err)

	when := patient.AdmissionDate.Add(24 * time.Hour)
	first, err := svc.Discharge(context.Background(), patient.ID, when)
	require.NoError(t, err)

	// A repeat discharge keeps the original date rather than failing.
	second, err := svc.Discharge(context.Background(), patient.ID, when.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, second.DischargeDate.Equal(*first.DischargeDate))
}

func TestPatientService_AddMedication(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-007"))
	require.NoError(t, err)

	updated, err := svc.AddMedication(context.Background(), patient.ID, &model.AddMedicationRequest{
		Medication: model.Medication{
			Name:         "Ceftriaxone",
			Dosage:       "1g",
			Frequency:    "every 24h",
			Route:        "IV",
			PrescribedBy: "Dr. Ahmed",
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Medications, 1)
	assert.Equal(t, "Ceftriaxone", updated.Medications[0].Name)
	assert.Equal(t, "IV", updated.Medications[0].Route)
}

func TestPatientService_AddMedication_Invalid(t *testing.T) {
	svc, _ := newTestPatientService()

	patient, err := svc.Create(context.Background(), patientCreateReq("MRN-008"))
	require.NoError(t, err)

	_, err = svc.AddMedication(context.Background(), patient.ID, &model.AddMedicationRequest{
		Medication: model.Medication{Name: "Ceftriaxone"},
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.AddMedication(context.Background(), patient.ID, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatientService_AddMedication_UnknownPatient(t *testing.T) {
	svc, _ := newTestPatientService()

	_, err := svc.AddMedication(context.Background(), "missing", &model.AddMedicationRequest{
		Medication: model.Medication{Name: "Ceftriaxone", Dosage: "1g", Frequency: "every 24h"},
	})
	assert.True(t, apperrors.IsNotFound(err))
}
