package ports

import (
	"context"
	"time"

	"github.com/nurser/dutyboard/internal/domain/model"
)

// UserRepository covers user CRUD beyond the auth-flow UserStore.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, opts *model.UsersListOptions) ([]model.User, error)
	Count(ctx context.Context, opts *model.UsersListOptions) (int64, error)
	Update(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error)
	SetActive(ctx context.Context, id string, active bool) (*model.User, error)
}

// ShiftRepository persists shifts and their nurse rosters.
type ShiftRepository interface {
	Create(ctx context.Context, req *model.CreateShiftRequest, createdBy string) (*model.Shift, error)
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	List(ctx context.Context, opts *model.ShiftsListOptions) ([]model.Shift, error)
	Count(ctx context.Context, opts *model.ShiftsListOptions) (int64, error)
	Update(ctx context.Context, id string, req *model.UpdateShiftRequest) (*model.Shift, error)
	SetApproval(ctx context.Context, id, approvedBy string) (*model.Shift, error)
	AssignNurse(ctx context.Context, id, nurseID string) (*model.Shift, error)
	UnassignNurse(ctx context.Context, id, nurseID string) (*model.Shift, error)
	Delete(ctx context.Context, id string) error
}

// DutyRepository persists duty assignments.
type DutyRepository interface {
	Create(ctx context.Context, req *model.CreateDutyRequest) (*model.Duty, error)
	GetByID(ctx context.Context, id string) (*model.Duty, error)
	List(ctx context.Context, opts *model.DutiesListOptions) ([]model.Duty, error)
	Count(ctx context.Context, opts *model.DutiesListOptions) (int64, error)
	Update(ctx context.Context, id string, req *model.UpdateDutyRequest, prevStatus model.DutyStatus) (*model.Duty, error)
	CompleteTask(ctx context.Context, id string, taskIndex int, notes string) (*model.Duty, error)
	Delete(ctx context.Context, id string) error
}

// PatientRepository persists patient records.
type PatientRepository interface {
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	GetByMedicalRecordNumber(ctx context.Context, mrn string) (*model.Patient, error)
	List(ctx context.Context, opts *model.PatientsListOptions) ([]model.Patient, error)
	Count(ctx context.Context, opts *model.PatientsListOptions) (int64, error)
	Update(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error)
	Discharge(ctx context.Context, id string, dischargeDate time.Time) (*model.Patient, error)
	AddMedication(ctx context.Context, id string, med model.Medication) (*model.Patient, error)
}
