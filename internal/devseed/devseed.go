// Package devseed populates a development database with a small roster of
// staff, patients, shifts and duties so the API is usable right after boot.
// Seeding is idempotent: records that already exist are left alone.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nurser/dutyboard/internal/data"
	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

type repos struct {
	users    *data.UserRepo
	shifts   *data.ShiftRepo
	duties   *data.DutyRepo
	patients *data.PatientRepo
}

type seedUser struct {
	identity       domainauth.Identity
	role           domainauth.Role
	specialization model.Specialization
	license        string
}

// Run executes the development seeding workflow against the provided database.
// Individual failures are logged and counted rather than aborting the run.
func Run(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	r := repos{
		users:    data.NewUserRepo(db),
		shifts:   data.NewShiftRepo(db),
		duties:   data.NewDutyRepo(db),
		patients: data.NewPatientRepo(db),
	}

	failures := 0

	staff, err := seedStaff(ctx, r, logger)
	if err != nil {
		return fmt.Errorf("seed staff: %w", err)
	}

	patients := seedPatients(ctx, r, logger, &failures)
	shifts := seedShifts(ctx, r, logger, staff["admin"], &failures)
	seedDuties(ctx, r, logger, staff, patients, shifts, &failures)

	if failures > 0 {
		logger.Warn("dev seed completed with failures", "failures", failures)
	} else {
		logger.Info("dev seed completed")
	}
	return nil
}

// seedStaff provisions accounts through the same identity upsert the login
// callback uses, then promotes roles. Keys in the returned map are the seed
// handles ("admin", "head", "nurse1", "nurse2"), values the user ids.
func seedStaff(ctx context.Context, r repos, logger *slog.Logger) (map[string]string, error) {
	users := map[string]seedUser{
		"admin": {
			identity: domainauth.Identity{
				ProviderID: "seed-admin", Username: "seed-admin",
				Email: "admin@dutyboard.local", DisplayName: "Seed Admin",
			},
			role: domainauth.RoleAdmin,
		},
		"head": {
			identity: domainauth.Identity{
				ProviderID: "seed-head", Username: "seed-head",
				Email: "head@dutyboard.local", DisplayName: "Seed Head Nurse",
			},
			role:           domainauth.RoleHeadNurse,
			specialization: model.SpecializationICU,
			license:        "RN-100001",
		},
		"nurse1": {
			identity: domainauth.Identity{
				ProviderID: "seed-nurse1", Username: "seed-nurse1",
				Email: "nurse1@dutyboard.local", DisplayName: "Seed Nurse One",
			},
			role:           domainauth.RoleNurse,
			specialization: model.SpecializationGeneral,
			license:        "RN-100002",
		},
		"nurse2": {
			identity: domainauth.Identity{
				ProviderID: "seed-nurse2", Username: "seed-nurse2",
				Email: "nurse2@dutyboard.local", DisplayName: "Seed Nurse Two",
			},
			role:           domainauth.RoleNurse,
			specialization: model.SpecializationER,
			license:        "RN-100003",
		},
	}

	ids := make(map[string]string, len(users))
	for handle, su := range users {
		user, err := r.users.ResolveIdentity(ctx, su.identity)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", su.identity.Username, err)
		}

		upd := &model.UpdateUserRequest{}
		if user.Role != su.role {
			role := su.role
			upd.Role = &role
		}
		if su.license != "" && user.LicenseNumber == "" {
			license := su.license
			upd.LicenseNumber = &license
		}
		if su.specialization != "" && user.Specialization == nil {
			spec := su.specialization
			upd.Specialization = &spec
		}
		if upd.HasUpdates() {
			if _, err := r.users.Update(ctx, user.ID, upd); err != nil {
				return nil, fmt.Errorf("promote %s: %w", user.Username, err)
			}
		}

		logger.Info("seeded user", "username", user.Username, "role", su.role)
		ids[handle] = user.ID
	}
	return ids, nil
}

func seedPatients(ctx context.Context, r repos, logger *slog.Logger, failures *int) []string {
	admitted := time.Now().UTC().Add(-48 * time.Hour)
	reqs := []*model.CreatePatientRequest{
		{
			FirstName: "Maria", LastName: "Santos",
			DateOfBirth:         time.Date(1952, 3, 14, 0, 0, 0, 0, time.UTC),
			Gender:              model.GenderFemale,
			MedicalRecordNumber: "MRN-0001",
			RoomNumber:          "ICU-2",
			AdmissionDate:       admitted,
			PrimaryDiagnosis:    "Acute respiratory failure",
			Status:              model.PatientStatusCritical,
			Allergies: []model.Allergy{
				{Name: "Penicillin", Severity: model.AllergySeveritySevere},
			},
			Medications: []model.Medication{
				{Name: "Ceftriaxone", Dosage: "1g", Frequency: "every 24h", Route: "IV", PrescribedBy: "Dr. Ahmed"},
			},
		},
		{
			FirstName: "James", LastName: "Okafor",
			DateOfBirth:         time.Date(1978, 11, 2, 0, 0, 0, 0, time.UTC),
			Gender:              model.GenderMale,
			MedicalRecordNumber: "MRN-0002",
			RoomNumber:          "204B",
			AdmissionDate:       admitted,
			PrimaryDiagnosis:    "Community-acquired pneumonia",
			SecondaryDiagnoses:  []string{"Hypertension"},
		},
		{
			FirstName: "Lena", LastName: "Virtanen",
			DateOfBirth:         time.Date(1990, 7, 21, 0, 0, 0, 0, time.UTC),
			Gender:              model.GenderFemale,
			MedicalRecordNumber: "MRN-0003",
			RoomNumber:          "311A",
			AdmissionDate:       admitted,
			PrimaryDiagnosis:    "Post-operative recovery, appendectomy",
			SpecialNeeds:        []string{"mobility assistance"},
		},
	}

	var ids []string
	for _, req := range reqs {
		p, err := r.patients.Create(ctx, req)
		if errors.Is(err, data.ErrMedicalRecordNumberExists) {
			continue
		}
		if err != nil {
			logger.Warn("seed patient failed", "mrn", req.MedicalRecordNumber, "error", err)
			*failures++
			continue
		}
		logger.Info("seeded patient", "mrn", p.MedicalRecordNumber, "room", p.RoomNumber)
		ids = append(ids, p.ID)
	}
	return ids
}

func seedShifts(ctx context.Context, r repos, logger *slog.Logger, createdBy string, failures *int) []string {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	reqs := []*model.CreateShiftRequest{
		{
			Name:          "ICU Day",
			Description:   "Day coverage for the intensive care unit",
			StartTime:     dayStart.Add(7 * time.Hour),
			EndTime:       dayStart.Add(19 * time.Hour),
			RequiredStaff: 2,
			Ward:          model.WardICU,
		},
		{
			Name:          "General Night",
			Description:   "Overnight coverage for the general ward",
			StartTime:     dayStart.Add(19 * time.Hour),
			EndTime:       dayStart.Add(31 * time.Hour),
			RequiredStaff: 1,
			Ward:          model.WardGeneral,
		},
	}

	var ids []string
	for _, req := range reqs {
		s, err := r.shifts.Create(ctx, req, createdBy)
		if errors.Is(err, data.ErrShiftNameExists) {
			continue
		}
		if err != nil {
			logger.Warn("seed shift failed", "name", req.Name, "error", err)
			*failures++
			continue
		}
		logger.Info("seeded shift", "name", s.Name, "ward", s.Ward)
		ids = append(ids, s.ID)
	}
	return ids
}

func seedDuties(
	ctx context.Context,
	r repos,
	logger *slog.Logger,
	staff map[string]string,
	patients, shifts []string,
	failures *int,
) {
	if len(patients) == 0 || len(shifts) == 0 {
		return
	}

	nurses := []string{staff["nurse1"], staff["nurse2"]}
	for i, nurseID := range nurses {
		shiftID := shifts[i%len(shifts)]
		if _, err := r.shifts.AssignNurse(ctx, shiftID, nurseID); err != nil &&
			!errors.Is(err, data.ErrNurseAssigned) {
			logger.Warn("seed shift assignment failed", "shift", shiftID, "error", err)
			*failures++
		}
	}

	now := time.Now().UTC()
	for i, patientID := range patients {
		req := &model.CreateDutyRequest{
			NurseID:   nurses[i%len(nurses)],
			PatientID: patientID,
			ShiftID:   shifts[i%len(shifts)],
			StartTime: now,
			Tasks: []model.Task{
				{Description: "Record vitals", Priority: model.TaskPriorityHigh},
				{Description: "Administer scheduled medication", Priority: model.TaskPriorityMedium},
			},
		}
		_, err := r.duties.Create(ctx, req)
		if errors.Is(err, data.ErrDutyExists) {
			continue
		}
		if err != nil {
			logger.Warn("seed duty failed", "patient", patientID, "error", err)
			*failures++
			continue
		}
		logger.Info("seeded duty", "nurse", req.NurseID, "patient", patientID)
	}
}
