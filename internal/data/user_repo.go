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

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
)

const usersCollection = "users"

// UserRepo provides database operations for users.
type UserRepo struct {
	collection   *mongo.Collection
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
// Unique indexes on email and github_id guard identity resolution; index
// creation is idempotent and failures surface on first write instead.
func NewUserRepo(db *mongo.Database) *UserRepo {
	r := &UserRepo{
		collection:   db.Collection(usersCollection),
		timeProvider: &RealTimeProvider{},
	}
	r.ensureIndexes()
	return r
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *mongo.Database, tp TimeProvider) *UserRepo {
	r := &UserRepo{
		collection:   db.Collection(usersCollection),
		timeProvider: tp,
	}
	r.ensureIndexes()
	return r
}

func (r *UserRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "github_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
}

// ResolveIdentity finds or creates the user for an authenticated identity.
// Matching prefers the stable provider id, falling back to email so accounts
// provisioned ahead of first login get linked instead of duplicated. The
// upsert is a single findAndModify; a concurrent callback replay for the same
// identity either matches the winner's document or hits the unique index, in
// which case one retry resolves against the now-existing record.
func (r *UserRepo) ResolveIdentity(ctx context.Context, identity domainauth.Identity) (*model.User, error) {
	if identity.ProviderID == "" {
		return nil, errors.New("identity provider id is required")
	}
	if identity.Email == "" {
		return nil, errors.New("identity email is required")
	}

	user, err := r.resolveOnce(ctx, identity)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		user, err = r.resolveOnce(ctx, identity)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return user, nil
}

func (r *UserRepo) resolveOnce(ctx context.Context, identity domainauth.Identity) (*model.User, error) {
	now := r.timeProvider.Now().UTC()

	filter := bson.M{"$or": bson.A{
		bson.M{"github_id": identity.ProviderID},
		bson.M{"email": identity.Email},
	}}
	update := bson.M{
		"$set": bson.M{
			"github_id":    identity.ProviderID,
			"username":     identity.Username,
			"email":        identity.Email,
			"display_name": identity.DisplayName,
			"last_login":   now,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"role":       domainauth.RoleNurse,
			"active":     true,
			"created_at": now,
		},
	}

	var user model.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrUserNotFound
	}

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &user, nil
}

// List retrieves users ordered by username with paging and optional filters.
func (r *UserRepo) List(ctx context.Context, opts *model.UsersListOptions) ([]model.User, error) {
	if opts == nil {
		opts = &model.UsersListOptions{}
	}

	filter := bson.M{}
	if opts.Role != nil {
		filter["role"] = *opts.Role
	}
	if opts.Active != nil {
		filter["active"] = *opts.Active
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Count returns the number of users matching the filters in opts.
func (r *UserRepo) Count(ctx context.Context, opts *model.UsersListOptions) (int64, error) {
	filter := bson.M{}
	if opts != nil {
		if opts.Role != nil {
			filter["role"] = *opts.Role
		}
		if opts.Active != nil {
			filter["active"] = *opts.Active
		}
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Update applies profile updates and returns the updated user.
func (r *UserRepo) Update(ctx context.Context, id string, req *model.UpdateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("update user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": r.timeProvider.Now().UTC()}
	if req.DisplayName != nil {
		set["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.LicenseNumber != nil {
		set["license_number"] = *req.LicenseNumber
	}
	if req.Specialization != nil {
		set["specialization"] = *req.Specialization
	}
	if req.Role != nil {
		set["role"] = *req.Role
	}

	var user model.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

// SetActive flips the active flag. Deactivated users fail verification on
// their next request even if they hold a live token.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) (*model.User, error) {
	var user model.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"active":     active,
			"updated_at": r.timeProvider.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set user active: %w", err)
	}
	return &user, nil
}
