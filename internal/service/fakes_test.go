package service

// Map-backed repository fakes for unit tests. They mirror the data layer's
// sentinel behavior without a database.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nurser/dutyboard/internal/data"
	"github.com/nurser/dutyboard/internal/domain/model"
	"github.com/nurser/dutyboard/internal/ports"
)

var (
	_ ports.UserRepository    = (*fakeUserRepo)(nil)
	_ ports.ShiftRepository   = (*fakeShiftRepo)(nil)
	_ ports.DutyRepository    = (*fakeDutyRepo)(nil)
	_ ports.PatientRepository = (*fakePatientRepo)(nil)
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) seed(u model.User) { f.users[u.ID] = &u }

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) List(_ context.Context, opts *model.UsersListOptions) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.users {
		if opts != nil && opts.Role != nil && u.Role != *opts.Role {
			continue
		}
		if opts != nil && opts.Active != nil && u.Active != *opts.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Count(ctx context.Context, opts *model.UsersListOptions) (int64, error) {
	users, err := f.List(ctx, opts)
	return int64(len(users)), err
}

func (f *fakeUserRepo) Update(_ context.Context, id string, req *model.UpdateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.LicenseNumber != nil {
		u.LicenseNumber = *req.LicenseNumber
	}
	if req.Specialization != nil {
		u.Specialization = req.Specialization
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	u.Active = active
	copied := *u
	return &copied, nil
}

type fakeShiftRepo struct {
	shifts map[string]*model.Shift
	nextID int
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (f *fakeShiftRepo) seed(s model.Shift) { f.shifts[s.ID] = &s }

func (f *fakeShiftRepo) Create(_ context.Context, req *model.CreateShiftRequest, createdBy string) (*model.Shift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, s := range f.shifts {
		if s.Name == strings.TrimSpace(req.Name) {
			return nil, data.ErrShiftNameExists
		}
	}
	f.nextID++
	now := time.Now().UTC()
	shift := &model.Shift{
		ID:             fmt.Sprintf("shift-%d", f.nextID),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		RequiredStaff:  req.RequiredStaff,
		AssignedNurses: []string{},
		Status:         req.Status,
		Ward:           req.Ward,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.shifts[shift.ID] = shift
	copied := *shift
	return &copied, nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, data.ErrShiftNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeShiftRepo) List(_ context.Context, opts *model.ShiftsListOptions) ([]model.Shift, error) {
	out := []model.Shift{}
	for _, s := range f.shifts {
		if opts != nil && opts.Status != nil {
			if s.Status != *opts.Status {
				continue
			}
		} else if s.Status == model.ShiftStatusCancelled {
			continue
		}
		if opts != nil && opts.Ward != nil && s.Ward != *opts.Ward {
			continue
		}
		if opts != nil && opts.Nurse != nil && !s.HasNurse(*opts.Nurse) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeShiftRepo) Count(ctx context.Context, opts *model.ShiftsListOptions) (int64, error) {
	shifts, err := f.List(ctx, opts)
	return int64(len(shifts)), err
}

func (f *fakeShiftRepo) Update(_ context.Context, id string, req *model.UpdateShiftRequest) (*model.Shift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s, ok := f.shifts[id]
	if !ok {
		return nil, data.ErrShiftNotFound
	}
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.StartTime != nil {
		s.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		s.EndTime = *req.EndTime
	}
	if req.RequiredStaff != nil {
		s.RequiredStaff = *req.RequiredStaff
	}
	if req.Ward != nil {
		s.Ward = *req.Ward
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
	copied := *s
	return &copied, nil
}

func (f *fakeShiftRepo) SetApproval(_ context.Context, id, approvedBy string) (*model.Shift, error) {
	s, ok := f.shifts[id]
	if !ok || s.Status != model.ShiftStatusPendingApproval {
		return nil, data.ErrShiftNotFound
	}
	s.Status = model.ShiftStatusScheduled
	s.ApprovedBy = &approvedBy
	copied := *s
	return &copied, nil
}

func (f *fakeShiftRepo) AssignNurse(_ context.Context, id, nurseID string) (*model.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, data.ErrShiftNotFound
	}
	if s.HasNurse(nurseID) {
		return nil, data.ErrNurseAssigned
	}
	if len(s.AssignedNurses) >= s.RequiredStaff {
		return nil, data.ErrShiftFull
	}
	s.AssignedNurses = append(s.AssignedNurses, nurseID)
	copied := *s
	return &copied, nil
}

func (f *fakeShiftRepo) UnassignNurse(_ context.Context, id, nurseID string) (*model.Shift, error) {
	s, ok := f.shifts[id]
	if !ok {
		return nil, data.ErrShiftNotFound
	}
	if !s.HasNurse(nurseID) {
		return nil, data.ErrNurseNotOnShift
	}
	kept := make([]string, 0, len(s.AssignedNurses))
	for _, n := range s.AssignedNurses {
		if n != nurseID {
			kept = append(kept, n)
		}
	}
	s.AssignedNurses = kept
	copied := *s
	return &copied, nil
}

func (f *fakeShiftRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.shifts[id]; !ok {
		return data.ErrShiftNotFound
	}
	delete(f.shifts, id)
	return nil
}

type fakeDutyRepo struct {
	duties map[string]*model.Duty
	nextID int
}

func newFakeDutyRepo() *fakeDutyRepo {
	return &fakeDutyRepo{duties: make(map[string]*model.Duty)}
}

func (f *fakeDutyRepo) Create(_ context.Context, req *model.CreateDutyRequest) (*model.Duty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, d := range f.duties {
		if d.NurseID == req.NurseID && d.PatientID == req.PatientID && d.ShiftID == req.ShiftID {
			return nil, data.ErrDutyExists
		}
	}
	f.nextID++
	now := time.Now().UTC()
	tasks := req.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	duty := &model.Duty{
		ID:        fmt.Sprintf("duty-%d", f.nextID),
		NurseID:   req.NurseID,
		PatientID: req.PatientID,
		ShiftID:   req.ShiftID,
		Tasks:     tasks,
		Status:    model.DutyStatusPending,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.duties[duty.ID] = duty
	copied := *duty
	return &copied, nil
}

func (f *fakeDutyRepo) GetByID(_ context.Context, id string) (*model.Duty, error) {
	d, ok := f.duties[id]
	if !ok {
		return nil, data.ErrDutyNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDutyRepo) List(_ context.Context, opts *model.DutiesListOptions) ([]model.Duty, error) {
	out := []model.Duty{}
	for _, d := range f.duties {
		if opts != nil && opts.Nurse != nil && d.NurseID != *opts.Nurse {
			continue
		}
		if opts != nil && opts.Status != nil && d.Status != *opts.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDutyRepo) Count(ctx context.Context, opts *model.DutiesListOptions) (int64, error) {
	duties, err := f.List(ctx, opts)
	return int64(len(duties)), err
}

func (f *fakeDutyRepo) Update(_ context.Context, id string, req *model.UpdateDutyRequest, prevStatus model.DutyStatus) (*model.Duty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	d, ok := f.duties[id]
	if !ok {
		return nil, data.ErrDutyNotFound
	}
	if d.Status != prevStatus {
		return nil, data.ErrDutyConflict
	}
	if req.Tasks != nil {
		d.Tasks = *req.Tasks
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.StartTime != nil {
		d.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		d.EndTime = req.EndTime
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDutyRepo) CompleteTask(_ context.Context, id string, taskIndex int, notes string) (*model.Duty, error) {
	d, ok := f.duties[id]
	if !ok {
		return nil, data.ErrDutyNotFound
	}
	if taskIndex < 0 || taskIndex >= len(d.Tasks) {
		return nil, fmt.Errorf("duty has no task at index %d", taskIndex)
	}
	now := time.Now().UTC()
	d.Tasks[taskIndex].Completed = true
	d.Tasks[taskIndex].CompletedAt = &now
	if notes != "" {
		d.Tasks[taskIndex].Notes = notes
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDutyRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.duties[id]; !ok {
		return data.ErrDutyNotFound
	}
	delete(f.duties, id)
	return nil
}

type fakePatientRepo struct {
	patients map[string]*model.Patient
	nextID   int
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[string]*model.Patient)}
}

func (f *fakePatientRepo) seed(p model.Patient) { f.patients[p.ID] = &p }

func (f *fakePatientRepo) Create(_ context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, p := range f.patients {
		if p.MedicalRecordNumber == strings.TrimSpace(req.MedicalRecordNumber) {
			return nil, data.ErrMedicalRecordNumberExists
		}
	}
	f.nextID++
	now := time.Now().UTC()
	patient := &model.Patient{
		ID:                  fmt.Sprintf("patient-%d", f.nextID),
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		DateOfBirth:         req.DateOfBirth,
		Gender:              req.Gender,
		MedicalRecordNumber: strings.TrimSpace(req.MedicalRecordNumber),
		RoomNumber:          strings.TrimSpace(req.RoomNumber),
		AdmissionDate:       req.AdmissionDate,
		PrimaryDiagnosis:    strings.TrimSpace(req.PrimaryDiagnosis),
		SecondaryDiagnoses:  req.SecondaryDiagnoses,
		Allergies:           req.Allergies,
		Medications:         req.Medications,
		SpecialNeeds:        req.SpecialNeeds,
		Status:              req.Status,
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.patients[patient.ID] = patient
	copied := *patient
	return &copied, nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, id string) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, data.ErrPatientNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) GetByMedicalRecordNumber(_ context.Context, mrn string) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.MedicalRecordNumber == mrn {
			copied := *p
			return &copied, nil
		}
	}
	return nil, data.ErrPatientNotFound
}

func (f *fakePatientRepo) List(_ context.Context, opts *model.PatientsListOptions) ([]model.Patient, error) {
	out := []model.Patient{}
	for _, p := range f.patients {
		if opts != nil && opts.Active != nil && p.Active != *opts.Active {
			continue
		}
		if opts != nil && opts.Room != nil && p.RoomNumber != *opts.Room {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePatientRepo) Count(ctx context.Context, opts *model.PatientsListOptions) (int64, error) {
	patients, err := f.List(ctx, opts)
	return int64(len(patients)), err
}

func (f *fakePatientRepo) Update(_ context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, data.ErrPatientNotFound
	}
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.RoomNumber != nil {
		p.RoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if req.PrimaryDiagnosis != nil {
		p.PrimaryDiagnosis = strings.TrimSpace(*req.PrimaryDiagnosis)
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) Discharge(_ context.Context, id string, dischargeDate time.Time) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, data.ErrPatientNotFound
	}
	if p.Active {
		if dischargeDate.IsZero() {
			dischargeDate = time.Now()
		}
		d := dischargeDate.UTC()
		p.DischargeDate = &d
		p.Status = model.PatientStatusDischarged
		p.Active = false
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) AddMedication(_ context.Context, id string, med model.Medication) (*model.Patient, error) {
	if err := med.Validate(); err != nil {
		return nil, err
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, data.ErrPatientNotFound
	}
	p.Medications = append(p.Medications, med)
	copied := *p
	return &copied, nil
}
