package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurser/dutyboard/internal/domain/model"
	"github.com/nurser/dutyboard/internal/testutil"
)

func validDutyRequest() *model.CreateDutyRequest {
	return &model.CreateDutyRequest{
		NurseID:   "nurse-1",
		PatientID: "patient-1",
		ShiftID:   "shift-1",
		StartTime: time.Date(2026, 9, 2, 7, 0, 0, 0, time.UTC),
		Tasks: []model.Task{
			{Description: "Check vitals", Priority: model.TaskPriorityHigh},
			{Description: "Administer medication"},
		},
	}
}

func TestDutyRepo_CreateAndGet(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	duty, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)
	require.NotEmpty(t, duty.ID)
	assert.Equal(t, model.DutyStatusPending, duty.Status)
	require.Len(t, duty.Tasks, 2)
	assert.Equal(t, model.TaskPriorityMedium, duty.Tasks[1].Priority, "task priority defaults to medium")

	got, err := repo.GetByID(ctx, duty.ID)
	require.NoError(t, err)
	assert.Equal(t, duty.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrDutyNotFound)
}

func TestDutyRepo_Create_Duplicate(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	_, err = repo.Create(ctx, validDutyRequest())
	assert.ErrorIs(t, err, ErrDutyExists)

	// A different shift for the same nurse and patient is fine.
	req := validDutyRequest()
	req.ShiftID = "shift-2"
	_, err = repo.Create(ctx, req)
	require.NoError(t, err)
}

func TestDutyRepo_List_Filters(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	req := validDutyRequest()
	req.NurseID = "nurse-2"
	req.StartTime = req.StartTime.Add(time.Hour)
	second, err := repo.Create(ctx, req)
	require.NoError(t, err)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest start time first")

	duties, err := repo.List(ctx, &model.DutiesListOptions{Nurse: testutil.StringPtr("nurse-1")})
	require.NoError(t, err)
	require.Len(t, duties, 1)
	assert.Equal(t, first.ID, duties[0].ID)

	status := model.DutyStatusPending
	count, err := repo.Count(ctx, &model.DutiesListOptions{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDutyRepo_Update_StatusGuard(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	duty, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	inProgress := model.DutyStatusInProgress
	updated, err := repo.Update(ctx, duty.ID, &model.UpdateDutyRequest{Status: &inProgress}, model.DutyStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.DutyStatusInProgress, updated.Status)

	// Stale guard: the caller validated against pending but the duty moved on.
	completed := model.DutyStatusCompleted
	_, err = repo.Update(ctx, duty.ID, &model.UpdateDutyRequest{Status: &completed}, model.DutyStatusPending)
	assert.ErrorIs(t, err, ErrDutyConflict)

	_, err = repo.Update(ctx, "missing", &model.UpdateDutyRequest{Status: &completed}, model.DutyStatusPending)
	assert.ErrorIs(t, err, ErrDutyNotFound)
}

func TestDutyRepo_Update_CompletionStampsEndTime(t *testing.T) {
	db := setupTestMongo(t)
	fixed := testutil.TestTime()
	repo := NewDutyRepoWithTimeProvider(db, NewFixedTimeProvider(fixed))
	ctx := context.Background()

	duty, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	inProgress := model.DutyStatusInProgress
	_, err = repo.Update(ctx, duty.ID, &model.UpdateDutyRequest{Status: &inProgress}, model.DutyStatusPending)
	require.NoError(t, err)

	completed := model.DutyStatusCompleted
	done, err := repo.Update(ctx, duty.ID, &model.UpdateDutyRequest{Status: &completed}, model.DutyStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, fixed, done.EndTime.UTC())
}

func TestDutyRepo_CompleteTask(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	duty, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	updated, err := repo.CompleteTask(ctx, duty.ID, 0, "BP stable")
	require.NoError(t, err)
	assert.True(t, updated.Tasks[0].Completed)
	require.NotNil(t, updated.Tasks[0].CompletedAt)
	assert.Equal(t, "BP stable", updated.Tasks[0].Notes)
	assert.False(t, updated.Tasks[1].Completed)

	_, err = repo.CompleteTask(ctx, duty.ID, 5, "")
	require.Error(t, err)

	_, err = repo.CompleteTask(ctx, "missing", 0, "")
	assert.ErrorIs(t, err, ErrDutyNotFound)
}

func TestDutyRepo_Delete(t *testing.T) {
	db := setupTestMongo(t)
	repo := NewDutyRepo(db)
	ctx := context.Background()

	duty, err := repo.Create(ctx, validDutyRequest())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, duty.ID))
	assert.ErrorIs(t, repo.Delete(ctx, duty.ID), ErrDutyNotFound)
}
