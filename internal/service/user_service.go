package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// UserService manages the user directory and enforces the role hierarchy
// policy on every mutation.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserUpdateInput carries the mutable fields of an account. Nil fields are
// left untouched. Role here never changes anything; a differing value is
// rejected and the dedicated role-change operation must be used instead.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// Create adds a user. Only ADMIN and MANAGER can create accounts, and a
// MANAGER can only create STAFF.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("only ADMIN or MANAGER can create users")
	}
	if actor.Role == domain.RoleManager && input.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("MANAGER can only create STAFF users")
	}
	if !actor.Role.CanManage(input.Role) {
		return nil, apperrors.NewForbidden(fmt.Sprintf("%s cannot create users with role %s", actor.Role, input.Role))
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedBy:    &actor.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventUserCreated,
		UserID:  user.ID,
		ActorID: actor.ID,
		Payload: events.UserCreatedPayload{Email: user.Email, Role: user.Role},
	})
	return user, nil
}

// ChangeRole assigns a new role to another user. ADMIN only, never on self.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, userID string, newRole domain.Role) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only ADMIN can change user roles")
	}

	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, apperrors.NewForbidden("cannot change your own role")
	}

	target.Role = newRole
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	return target, nil
}

// List returns every user. Open to any authenticated actor.
func (s *UserService) List(ctx context.Context, _ *domain.User) ([]domain.User, error) {
	return s.users.List(ctx)
}

// ListAccessible returns the users the actor's role may manage: ADMIN sees
// all, MANAGER sees managers and staff, STAFF sees staff.
func (s *UserService) ListAccessible(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.users.List(ctx)
	case domain.RoleManager:
		return s.users.ListByRoleIn(ctx, []domain.Role{domain.RoleManager, domain.RoleStaff})
	default:
		return s.users.ListByRole(ctx, domain.RoleStaff)
	}
}

// ListByRole returns users holding the given role. Open to any
// authenticated actor.
func (s *UserService) ListByRole(ctx context.Context, _ *domain.User, role domain.Role) ([]domain.User, error) {
	return s.users.ListByRole(ctx, role)
}

// GetByID fetches a user. Self-access is always allowed; otherwise the
// actor's role must manage the target's role.
func (s *UserService) GetByID(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.ID == target.ID {
		return target, nil
	}
	if !actor.Role.CanManage(target.Role) {
		return nil, apperrors.NewForbidden("cannot view user with higher role")
	}
	return target, nil
}

// Update modifies a user's name, email or credential. Self-update is always
// allowed; updating another user requires managing their role. The role
// field may be submitted unchanged but a differing value is rejected.
func (s *UserService) Update(ctx context.Context, actor *domain.User, userID string, input UserUpdateInput) (*domain.User, error) {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if actor.ID == target.ID {
		if input.Role != nil && *input.Role != target.Role {
			return nil, apperrors.NewForbidden("cannot change your own role")
		}
	} else {
		if !actor.Role.CanManage(target.Role) {
			return nil, apperrors.NewForbidden("cannot update user with higher role")
		}
		if input.Role != nil && *input.Role != target.Role {
			return nil, apperrors.NewForbidden("role can only be changed via the role change operation")
		}
	}

	if input.Name != nil {
		target.Name = *input.Name
	}
	if input.Email != nil {
		target.Email = *input.Email
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		target.PasswordHash = hash
	}

	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	return target, nil
}

// Delete permanently removes a user. Never on self; the actor must manage
// the target's role, and a MANAGER may only delete STAFF.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, userID string) error {
	target, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if target.ID == actor.ID {
		return apperrors.NewForbidden("cannot delete yourself")
	}
	if !actor.Role.CanManage(target.Role) {
		return apperrors.NewForbidden("cannot delete user with higher role")
	}
	if actor.Role == domain.RoleManager && target.Role != domain.RoleStaff {
		return apperrors.NewForbidden("MANAGER can only delete STAFF users")
	}

	if err := s.users.Delete(ctx, target.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
