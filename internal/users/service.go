package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

// Service resolves caller roles and manages profiles.
type Service interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role enums.UserRole) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	SaveProfile(ctx context.Context, userID uuid.UUID, name string) (*ProfileDTO, error)
}

// ProfileDTO is the API-facing profile shape.
type ProfileDTO struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

type service struct {
	repo Repository
}

// NewService constructs the user service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

// ResolveRole looks up the caller's role in storage on every call. An
// authenticated user without an explicit assignment is a plain user; the
// role is never cached and never read from the token.
func (s *service) ResolveRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error) {
	if userID == uuid.Nil {
		return enums.UserRoleGuest, nil
	}
	row, err := s.repo.FindRole(ctx, userID)
	if err != nil {
		return enums.UserRoleGuest, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user role")
	}
	if row == nil {
		return enums.UserRoleUser, nil
	}
	return row.Role, nil
}

// AssignRole stores an explicit role for a user. Guest cannot be assigned;
// it is the absence of identity, not a grantable role.
func (s *service) AssignRole(ctx context.Context, userID uuid.UUID, role enums.UserRole) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !role.IsValid() || role == enums.UserRoleGuest {
		return pkgerrors.New(pkgerrors.CodeValidation, "role must be admin or user")
	}
	if err := s.repo.SaveRole(ctx, &models.UserRole{UserID: userID, Role: role}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save user role")
	}
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return &ProfileDTO{UserID: profile.UserID, Name: profile.Name}, nil
}

func (s *service) SaveProfile(ctx context.Context, userID uuid.UUID, name string) (*ProfileDTO, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	profile := &models.UserProfile{UserID: userID, Name: trimmed}
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save profile")
	}
	return &ProfileDTO{UserID: profile.UserID, Name: profile.Name}, nil
}
