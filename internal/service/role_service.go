package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrProtectedRole = errors.New("owner accounts cannot be reassigned")
	ErrInvalidRole   = domain.ErrInvalidRole
)

// Actor is the verified identity performing an administrative action.
type Actor struct {
	UserID uint
	Role   domain.Role
}

type RoleService struct {
	userRepo repository.UserRepository
}

func NewRoleService(userRepo repository.UserRepository) *RoleService {
	return &RoleService{userRepo: userRepo}
}

// Reassign changes the role of targetID. Only owners may reassign, owner
// targets are refused whoever asks, and only student or admin can be granted.
func (s *RoleService) Reassign(ctx context.Context, actor Actor, targetID uint, newRole string) (*domain.User, error) {
	if actor.Role != domain.RoleOwner {
		observability.RecordRoleMutation(ctx, "unknown", "forbidden")
		return nil, ErrForbidden
	}
	role, err := domain.ParseRole(newRole)
	if err != nil {
		observability.RecordRoleMutation(ctx, "invalid", "rejected")
		return nil, ErrInvalidRole
	}
	if !role.Assignable() {
		observability.RecordRoleMutation(ctx, role.String(), "rejected")
		return nil, fmt.Errorf("%w: %s is not assignable", ErrInvalidRole, role)
	}
	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleOwner {
		observability.RecordRoleMutation(ctx, role.String(), "protected")
		return nil, ErrProtectedRole
	}
	if target.Role == role {
		observability.RecordRoleMutation(ctx, role.String(), "noop")
		return target, nil
	}
	if err := s.userRepo.UpdateRole(targetID, role); err != nil {
		if errors.Is(err, repository.ErrOwnerImmutable) {
			observability.RecordRoleMutation(ctx, role.String(), "protected")
			return nil, ErrProtectedRole
		}
		observability.RecordRoleMutation(ctx, role.String(), "error")
		return nil, err
	}
	target.Role = role
	observability.RecordRoleMutation(ctx, role.String(), "success")
	return target, nil
}
