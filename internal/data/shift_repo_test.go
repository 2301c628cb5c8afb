package data

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurser/dutyboard/internal/domain/model"
	"github.com/nurser/dutyboard/internal/testutil"
)

func validShiftRequest(name string) *model.CreateShiftRequest {
	start := time.Date(2026, 9, 2, 7, 0, 0, 0, time.UTC)
	return &model.CreateShiftRequest{
		Name:          name,
		StartTime:     start,
		EndTime:       start.Add(8 * time.Hour),
		RequiredStaff: 2,
		Ward:          model.WardICU,
	}
}

func TestShiftRepo_CreateAndGet(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	shift, err := repo.Create(ctx, validShiftRequest("Morning A"), "admin-1")
	require.NoError(t, err)
	require.NotEmpty(t, shift.ID)
	assert.Equal(t, "Morning A", shift.Name)
	assert.Equal(t, model.ShiftStatusScheduled, shift.Status)
	assert.Equal(t, "admin-1", shift.CreatedBy)
	assert.Empty(t, shift.AssignedNurses)

	got, err := repo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, shift.ID, got.ID)
	assert.Equal(t, shift.StartTime, got.StartTime.UTC())

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftRepo_Create_DuplicateName(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, validShiftRequest("Night B"), "admin-1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, validShiftRequest("Night B"), "admin-2")
	assert.ErrorIs(t, err, ErrShiftNameExists)
}

func TestShiftRepo_List_ExcludesCancelled(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	kept, err := repo.Create(ctx, validShiftRequest("Kept"), "admin-1")
	require.NoError(t, err)

	cancelled, err := repo.Create(ctx, validShiftRequest("Cancelled"), "admin-1")
	require.NoError(t, err)
	status := model.ShiftStatusCancelled
	_, err = repo.Update(ctx, cancelled.ID, &model.UpdateShiftRequest{Status: &status})
	require.NoError(t, err)

	shifts, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, kept.ID, shifts[0].ID)

	// Explicit status filter surfaces cancelled shifts.
	shifts, err = repo.List(ctx, &model.ShiftsListOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, cancelled.ID, shifts[0].ID)
}

func TestShiftRepo_List_Filters(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	icu, err := repo.Create(ctx, validShiftRequest("ICU Day"), "admin-1")
	require.NoError(t, err)

	erReq := validShiftRequest("ER Day")
	erReq.Ward = model.WardER
	_, err = repo.Create(ctx, erReq, "admin-1")
	require.NoError(t, err)

	_, err = repo.AssignNurse(ctx, icu.ID, "nurse-1")
	require.NoError(t, err)

	ward := model.WardICU
	shifts, err := repo.List(ctx, &model.ShiftsListOptions{Ward: &ward})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, icu.ID, shifts[0].ID)

	shifts, err = repo.List(ctx, &model.ShiftsListOptions{Nurse: testutil.StringPtr("nurse-1")})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, icu.ID, shifts[0].ID)
}

func TestShiftRepo_Update(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	shift, err := repo.Create(ctx, validShiftRequest("Evening"), "admin-1")
	require.NoError(t, err)

	staff := 5
	updated, err := repo.Update(ctx, shift.ID, &model.UpdateShiftRequest{
		Name:          testutil.StringPtr("Evening C"),
		RequiredStaff: &staff,
	})
	require.NoError(t, err)
	assert.Equal(t, "Evening C", updated.Name)
	assert.Equal(t, 5, updated.RequiredStaff)

	_, err = repo.Update(ctx, "missing", &model.UpdateShiftRequest{Name: testutil.StringPtr("x")})
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftRepo_AssignNurse(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	shift, err := repo.Create(ctx, validShiftRequest("Staffed"), "admin-1")
	require.NoError(t, err)

	updated, err := repo.AssignNurse(ctx, shift.ID, "nurse-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"nurse-1"}, updated.AssignedNurses)

	_, err = repo.AssignNurse(ctx, shift.ID, "nurse-1")
	assert.ErrorIs(t, err, ErrNurseAssigned)

	updated, err = repo.AssignNurse(ctx, shift.ID, "nurse-2")
	require.NoError(t, err)
	assert.True(t, updated.IsFullyStaffed())

	_, err = repo.AssignNurse(ctx, shift.ID, "nurse-3")
	assert.ErrorIs(t, err, ErrShiftFull)

	_, err = repo.AssignNurse(ctx, "missing", "nurse-1")
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftRepo_AssignNurse_Concurrent(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	req := validShiftRequest("Contended")
	req.RequiredStaff = 3
	shift, err := repo.Create(ctx, req, "admin-1")
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.AssignNurse(ctx, shift.ID, fmt.Sprintf("nurse-%d", i))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrShiftFull)
		}
	}
	assert.Equal(t, 3, succeeded, "capacity is never exceeded under contention")

	final, err := repo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Len(t, final.AssignedNurses, 3)
}

func TestShiftRepo_UnassignNurse(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	shift, err := repo.Create(ctx, validShiftRequest("Roster"), "admin-1")
	require.NoError(t, err)

	_, err = repo.AssignNurse(ctx, shift.ID, "nurse-1")
	require.NoError(t, err)

	updated, err := repo.UnassignNurse(ctx, shift.ID, "nurse-1")
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedNurses)

	_, err = repo.UnassignNurse(ctx, shift.ID, "nurse-1")
	assert.ErrorIs(t, err, ErrNurseNotOnShift)

	_, err = repo.UnassignNurse(ctx, "missing", "nurse-1")
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftRepo_SetApproval(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	req := validShiftRequest("Needs Approval")
	req.Status = model.ShiftStatusPendingApproval
	shift, err := repo.Create(ctx, req, "head-1")
	require.NoError(t, err)

	approved, err := repo.SetApproval(ctx, shift.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.ShiftStatusScheduled, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-1", *approved.ApprovedBy)

	// Already approved; nothing left in pending_approval to match.
	_, err = repo.SetApproval(ctx, shift.ID, "admin-2")
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestShiftRepo_Delete(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewShiftRepo(db)
	ctx := context.Background()

	shift, err := repo.Create(ctx, validShiftRequest("Doomed"), "admin-1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, shift.ID))
	assert.ErrorIs(t, repo.Delete(ctx, shift.ID), ErrShiftNotFound)
}
