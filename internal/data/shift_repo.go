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

const shiftsCollection = "shifts"

// ShiftRepo provides database operations for shifts.
type ShiftRepo struct {
	collection   *mongo.Collection
	timeProvider TimeProvider
}

// NewShiftRepo creates a new ShiftRepo with real time provider.
func NewShiftRepo(db *mongo.Database) *ShiftRepo {
	r := &ShiftRepo{
		collection:   db.Collection(shiftsCollection),
		timeProvider: &RealTimeProvider{},
	}
	r.ensureIndexes()
	return r
}

// NewShiftRepoWithTimeProvider creates a new ShiftRepo with a custom time provider (useful for tests).
func NewShiftRepoWithTimeProvider(db *mongo.Database, tp TimeProvider) *ShiftRepo {
	r := &ShiftRepo{
		collection:   db.Collection(shiftsCollection),
		timeProvider: tp,
	}
	r.ensureIndexes()
	return r
}

func (r *ShiftRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "start_time", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assigned_nurses", Value: 1}},
		},
	})
}

// Create inserts a new shift.
func (r *ShiftRepo) Create(ctx context.Context, req *model.CreateShiftRequest, createdBy string) (*model.Shift, error) {
	if req == nil {
		return nil, errors.New("create shift request is required")
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, errors.New("created_by is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	shift := model.Shift{
		ID:             primitive.NewObjectID().Hex(),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		RequiredStaff:  req.RequiredStaff,
		AssignedNurses: []string{},
		Status:         req.Status,
		Ward:           req.Ward,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := r.collection.InsertOne(ctx, shift); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrShiftNameExists
		}
		return nil, fmt.Errorf("create shift: %w", err)
	}
	return &shift, nil
}

// GetByID retrieves a shift by id.
func (r *ShiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrShiftNotFound
	}

	var shift model.Shift
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&shift)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	return &shift, nil
}

// List retrieves shifts ordered by start time with paging and optional
// filters. Cancelled shifts are excluded unless asked for explicitly.
func (r *ShiftRepo) List(ctx context.Context, opts *model.ShiftsListOptions) ([]model.Shift, error) {
	if opts == nil {
		opts = &model.ShiftsListOptions{}
	}

	filter := r.listFilter(opts)
	findOpts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer cursor.Close(ctx)

	shifts := []model.Shift{}
	if err := cursor.All(ctx, &shifts); err != nil {
		return nil, fmt.Errorf("decode shifts: %w", err)
	}
	return shifts, nil
}

// Count returns the number of shifts matching the filters in opts.
func (r *ShiftRepo) Count(ctx context.Context, opts *model.ShiftsListOptions) (int64, error) {
	if opts == nil {
		opts = &model.ShiftsListOptions{}
	}
	count, err := r.collection.CountDocuments(ctx, r.listFilter(opts))
	if err != nil {
		return 0, fmt.Errorf("count shifts: %w", err)
	}
	return count, nil
}

func (r *ShiftRepo) listFilter(opts *model.ShiftsListOptions) bson.M {
	filter := bson.M{}
	if opts.Status != nil {
		filter["status"] = *opts.Status
	} else {
		filter["status"] = bson.M{"$ne": model.ShiftStatusCancelled}
	}
	if opts.Ward != nil {
		filter["ward"] = *opts.Ward
	}
	if opts.Nurse != nil {
		filter["assigned_nurses"] = *opts.Nurse
	}
	return filter
}

// Update applies field updates and returns the updated shift.
func (r *ShiftRepo) Update(ctx context.Context, id string, req *model.UpdateShiftRequest) (*model.Shift, error) {
	if req == nil {
		return nil, errors.New("update shift request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": r.timeProvider.Now().UTC()}
	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.StartTime != nil {
		set["start_time"] = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		set["end_time"] = req.EndTime.UTC()
	}
	if req.RequiredStaff != nil {
		set["required_staff"] = *req.RequiredStaff
	}
	if req.Ward != nil {
		set["ward"] = *req.Ward
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}

	var shift model.Shift
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&shift)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrShiftNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrShiftNameExists
		}
		return nil, fmt.Errorf("update shift: %w", err)
	}
	return &shift, nil
}

// SetApproval records the approver and moves the shift out of pending_approval.
func (r *ShiftRepo) SetApproval(ctx context.Context, id, approvedBy string) (*model.Shift, error) {
	var shift model.Shift
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": model.ShiftStatusPendingApproval},
		bson.M{"$set": bson.M{
			"status":      model.ShiftStatusScheduled,
			"approved_by": approvedBy,
			"updated_at":  r.timeProvider.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&shift)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("approve shift: %w", err)
	}
	return &shift, nil
}

// AssignNurse adds a nurse to the shift roster. The filter carries the
// capacity and duplicate checks so concurrent assignments cannot overbook.
func (r *ShiftRepo) AssignNurse(ctx context.Context, id, nurseID string) (*model.Shift, error) {
	if strings.TrimSpace(nurseID) == "" {
		return nil, errors.New("nurse id is required")
	}

	filter := bson.M{
		"_id":             id,
		"assigned_nurses": bson.M{"$ne": nurseID},
		"$expr":           bson.M{"$lt": bson.A{bson.M{"$size": "$assigned_nurses"}, "$required_staff"}},
	}
	update := bson.M{
		"$push": bson.M{"assigned_nurses": nurseID},
		"$set":  bson.M{"updated_at": r.timeProvider.Now().UTC()},
	}

	var shift model.Shift
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&shift)
	if err == nil {
		return &shift, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("assign nurse: %w", err)
	}

	// The guarded update matched nothing; fetch to report which check failed.
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if existing.HasNurse(nurseID) {
		return nil, ErrNurseAssigned
	}
	return nil, ErrShiftFull
}

// UnassignNurse removes a nurse from the shift roster.
func (r *ShiftRepo) UnassignNurse(ctx context.Context, id, nurseID string) (*model.Shift, error) {
	if strings.TrimSpace(nurseID) == "" {
		return nil, errors.New("nurse id is required")
	}

	var shift model.Shift
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "assigned_nurses": nurseID},
		bson.M{
			"$pull": bson.M{"assigned_nurses": nurseID},
			"$set":  bson.M{"updated_at": r.timeProvider.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&shift)
	if err == nil {
		return &shift, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("unassign nurse: %w", err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNurseNotOnShift
}

// Delete removes a shift.
func (r *ShiftRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrShiftNotFound
	}
	return nil
}
