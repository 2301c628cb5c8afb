package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nurser/dutyboard/internal/domain/model"
)

const dutiesCollection = "duties"

// DutyRepo provides database operations for duties.
type DutyRepo struct {
	collection   *mongo.Collection
	timeProvider TimeProvider
}

// NewDutyRepo creates a new DutyRepo with real time provider.
func NewDutyRepo(db *mongo.Database) *DutyRepo {
	r := &DutyRepo{
		collection:   db.Collection(dutiesCollection),
		timeProvider: &RealTimeProvider{},
	}
	r.ensureIndexes()
	return r
}

// NewDutyRepoWithTimeProvider creates a new DutyRepo with a custom time provider (useful for tests).
func NewDutyRepoWithTimeProvider(db *mongo.Database, tp TimeProvider) *DutyRepo {
	r := &DutyRepo{
		collection:   db.Collection(dutiesCollection),
		timeProvider: tp,
	}
	r.ensureIndexes()
	return r
}

func (r *DutyRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// One duty per nurse, patient and shift.
			Keys: bson.D{
				{Key: "nurse_id", Value: 1},
				{Key: "patient_id", Value: 1},
				{Key: "shift_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "start_time", Value: 1}},
		},
	})
}

// Create inserts a new duty in pending status.
func (r *DutyRepo) Create(ctx context.Context, req *model.CreateDutyRequest) (*model.Duty, error) {
	if req == nil {
		return nil, errors.New("create duty request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	tasks := req.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	duty := model.Duty{
		ID:        primitive.NewObjectID().Hex(),
		NurseID:   req.NurseID,
		PatientID: req.PatientID,
		ShiftID:   req.ShiftID,
		Tasks:     tasks,
		Status:    model.DutyStatusPending,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, duty); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDutyExists
		}
		return nil, fmt.Errorf("create duty: %w", err)
	}
	return &duty, nil
}

// GetByID retrieves a duty by id.
func (r *DutyRepo) GetByID(ctx context.Context, id string) (*model.Duty, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrDutyNotFound
	}

	var duty model.Duty
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&duty)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDutyNotFound
		}
		return nil, fmt.Errorf("get duty: %w", err)
	}
	return &duty, nil
}

// List retrieves duties ordered by start time descending with paging and
// optional filters.
func (r *DutyRepo) List(ctx context.Context, opts *model.DutiesListOptions) ([]model.Duty, error) {
	if opts == nil {
		opts = &model.DutiesListOptions{}
	}

	filter := r.listFilter(opts)
	findOpts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list duties: %w", err)
	}
	defer cursor.Close(ctx)

	duties := []model.Duty{}
	if err := cursor.All(ctx, &duties); err != nil {
		return nil, fmt.Errorf("decode duties: %w", err)
	}
	return duties, nil
}

// Count returns the number of duties matching the filters in opts.
func (r *DutyRepo) Count(ctx context.Context, opts *model.DutiesListOptions) (int64, error) {
	if opts == nil {
		opts = &model.DutiesListOptions{}
	}
	count, err := r.collection.CountDocuments(ctx, r.listFilter(opts))
	if err != nil {
		return 0, fmt.Errorf("count duties: %w", err)
	}
	return count, nil
}

func (r *DutyRepo) listFilter(opts *model.DutiesListOptions) bson.M {
	filter := bson.M{}
	if opts.Nurse != nil {
		filter["nurse_id"] = *opts.Nurse
	}
	if opts.Patient != nil {
		filter["patient_id"] = *opts.Patient
	}
	if opts.Shift != nil {
		filter["shift_id"] = *opts.Shift
	}
	if opts.Status != nil {
		filter["status"] = *opts.Status
	}
	return filter
}

// Update applies field updates to the duty and returns the updated document.
// prevStatus guards the write: the update only lands if the stored status
// still matches what the caller validated the transition against.
func (r *DutyRepo) Update(ctx context.Context, id string, req *model.UpdateDutyRequest, prevStatus model.DutyStatus) (*model.Duty, error) {
	if req == nil {
		return nil, errors.New("update duty request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	set := bson.M{"updated_at": now}
	if req.Tasks != nil {
		set["tasks"] = *req.Tasks
	}
	if req.Status != nil {
		set["status"] = *req.Status
		// Completing a duty stamps its end time when none was recorded.
		if *req.Status == model.DutyStatusCompleted && req.EndTime == nil {
			set["end_time"] = now
		}
	}
	if req.StartTime != nil {
		set["start_time"] = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		set["end_time"] = req.EndTime.UTC()
	}

	var duty model.Duty
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": prevStatus},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&duty)
	if err == nil {
		return &duty, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update duty: %w", err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrDutyConflict
}

// CompleteTask marks a single task on the duty as completed.
func (r *DutyRepo) CompleteTask(ctx context.Context, id string, taskIndex int, notes string) (*model.Duty, error) {
	if taskIndex < 0 {
		return nil, errors.New("task index must not be negative")
	}

	now := r.timeProvider.Now().UTC()
	prefix := fmt.Sprintf("tasks.%d.", taskIndex)
	set := bson.M{
		prefix + "completed":    true,
		prefix + "completed_at": now,
		"updated_at":            now,
	}
	if notes != "" {
		set[prefix+"notes"] = notes
	}

	var duty model.Duty
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, prefix + "description": bson.M{"$exists": true}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&duty)
	if err == nil {
		return &duty, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("complete task: %w", err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("duty has no task at index %d", taskIndex)
}

// Delete removes a duty.
func (r *DutyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete duty: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrDutyNotFound
	}
	return nil
}
