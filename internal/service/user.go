package service

import (
	"context"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
	"github.com/nurser/dutyboard/internal/domain/model"
	apperrors "github.com/nurser/dutyboard/internal/errors"
	"github.com/nurser/dutyboard/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users ports.UserRepository
}

// UserService handles staff account management. Users come into existence
// through the login handshake; this service only reads and amends them.
type UserService struct {
	users ports.UserRepository
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	return &UserService{users: opts.Users}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns a page of users plus the total count for the same filters.
func (s *UserService) List(ctx context.Context, opts *model.UsersListOptions) ([]model.User, int64, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.Count(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update applies profile changes. Users may edit their own profile; admins
// may edit anyone. Role changes are admin-only regardless of whose profile
// it is.
func (s *UserService) Update(ctx context.Context, actor domainauth.Claims, id string, req *model.UpdateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, apperrors.Validation("update request is required")
	}
	isAdmin := actor.Role.AtLeast(domainauth.RoleAdmin)
	if actor.UserID != id && !isAdmin {
		return nil, apperrors.Forbidden("cannot update another user's profile")
	}
	if req.Role != nil && !isAdmin {
		return nil, apperrors.Forbidden("only admins can change roles")
	}
	return s.users.Update(ctx, id, req)
}

// SetActive activates or deactivates an account. Admin-only, and admins
// cannot deactivate themselves so the system always keeps a working admin.
func (s *UserService) SetActive(ctx context.Context, actor domainauth.Claims, id string, active bool) (*model.User, error) {
	if !actor.Role.AtLeast(domainauth.RoleAdmin) {
		return nil, apperrors.Forbidden("only admins can change account status")
	}
	if !active && actor.UserID == id {
		return nil, apperrors.Validation("cannot deactivate your own account")
	}
	return s.users.SetActive(ctx, id, active)
}
