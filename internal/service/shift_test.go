package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/testutil"
)

func newTestShiftService() (*ShiftService, *fakeShiftRepo, *fakeUserRepo) {
	shifts := newFakeShiftRepo()
	users := newFakeUserRepo()
	users.seed(model.User{ID: "nurse-1", Username: "nurse1", Role: domainauth.RoleNurse, Active: true})
	users.seed(model.User{ID: "nurse-2", Username: "nurse2", Role: domainauth.RoleNurse, Active: false})
	svc := NewShiftService(ShiftServiceOptions{Shifts: shifts, Users: users})
	return svc, shifts, users
}

func shiftCreateReq(name string) *model.CreateShiftRequest {
	start := time.Date(2026, 9, 3, 7, 0, 0, 0, time.UTC)
	return &model.CreateShiftRequest{
		Name:          name,
		StartTime:     start,
		EndTime:       start.Add(8 * time.Hour),
		RequiredStaff: 2,
		Ward:          model.WardGeneral,
	}
}

func TestShiftService_CreateAndGet(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Day 1"), "head-1")
	require.NoError(t, err)
	assert.Equal(t, "head-1", shift.CreatedBy)

	got, err := svc.GetByID(context.Background(), shift.ID)
	require.NoError(t, err)
	assert.Equal(t, shift.ID, got.ID)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestShiftService_Create_DuplicateName(t *testing.T) {
	svc, _, _ := newTestShiftService()

	_, err := svc.Create(context.Background(), shiftCreateReq("Dup"), "head-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), shiftCreateReq("Dup"), "head-1")
	assert.True(t, apperrors.IsConflict(err))
}

func TestShiftService_Update_TimeWindow(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Window"), "head-1")
	require.NoError(t, err)

	// Moving only the end before the stored start must fail.
	badEnd := shift.StartTime.Add(-time.Hour)
	_, err = svc.Update(context.Background(), shift.ID, &model.UpdateShiftRequest{EndTime: &badEnd})
	assert.True(t, apperrors.IsValidation(err))

	// Shrinking below an hour must fail.
	shortEnd := shift.StartTime.Add(30 * time.Minute)
	_, err = svc.Update(context.Background(), shift.ID, &model.UpdateShiftRequest{EndTime: &shortEnd})
	assert.True(t, apperrors.IsValidation(err))

	// A consistent move of both ends is fine.
	newStart := shift.StartTime.Add(24 * time.Hour)
	newEnd := newStart.Add(8 * time.Hour)
	updated, err := svc.Update(context.Background(), shift.ID, &model.UpdateShiftRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)
}

func TestShiftService_Update_StaffBelowAssigned(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Staffed"), "head-1")
	require.NoError(t, err)

	_, err = svc.AssignNurse(context.Background(), shift.ID, "nurse-1")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), shift.ID, &model.UpdateShiftRequest{
		RequiredStaff: testutil.IntPtr(0),
	})
	require.Error(t, err)

	// One assigned nurse, requirement of one is allowed.
	updated, err := svc.Update(context.Background(), shift.ID, &model.UpdateShiftRequest{
		RequiredStaff: testutil.IntPtr(1),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsFullyStaffed())
}

func TestShiftService_AssignNurse(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Roster"), "head-1")
	require.NoError(t, err)

	updated, err := svc.AssignNurse(context.Background(), shift.ID, "nurse-1")
	require.NoError(t, err)
	assert.True(t, updated.HasNurse("nurse-1"))

	_, err = svc.AssignNurse(context.Background(), shift.ID, "nurse-1")
	assert.True(t, apperrors.IsConflict(err), "duplicate assignment")

	_, err = svc.AssignNurse(context.Background(), shift.ID, "nurse-2")
	assert.True(t, apperrors.IsValidation(err), "inactive nurse")

	_, err = svc.AssignNurse(context.Background(), shift.ID, "ghost")
	assert.True(t, apperrors.IsNotFound(err), "unknown nurse")
}

func TestShiftService_UnassignNurse(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Unassign"), "head-1")
	require.NoError(t, err)

	_, err = svc.AssignNurse(context.Background(), shift.ID, "nurse-1")
	require.NoError(t, err)

	updated, err := svc.UnassignNurse(context.Background(), shift.ID, "nurse-1")
	require.NoError(t, err)
	assert.False(t, updated.HasNurse("nurse-1"))

	_, err = svc.UnassignNurse(context.Background(), shift.ID, "nurse-1")
	assert.True(t, apperrors.IsConflict(err))
}

func TestShiftService_Approve(t *testing.T) {
	svc, _, _ := newTestShiftService()

	req := shiftCreateReq("Pending")
	req.Status = model.ShiftStatusPendingApproval
	shift, err := svc.Create(context.Background(), req, "head-1")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), shift.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.ShiftStatusScheduled, approved.Status)

	// Approving again conflicts rather than silently succeeding.
	_, err = svc.Approve(context.Background(), shift.ID, "admin-1")
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.Approve(context.Background(), "missing", "admin-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestShiftService_Delete(t *testing.T) {
	svc, _, _ := newTestShiftService()

	shift, err := svc.Create(context.Background(), shiftCreateReq("Doomed"), "head-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), shift.ID))
	err = svc.Delete(context.Background(), shift.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
