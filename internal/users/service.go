package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/config"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/security"
)

// Service serves the /users/me surface.
type Service interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*UserDTO, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) GetMe(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateMeInput) (*UserDTO, error) {
	fields := map[string]any{}

	if input.Username != nil {
		username, err := NormalizeUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		if err := s.ensureFree(ctx, "username", username, userID); err != nil {
			return nil, err
		}
		fields["username"] = username
	}
	if input.Email != nil {
		email, err := NormalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureFree(ctx, "email", email, userID); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if input.Password != nil {
		if err := ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		fields["password_hash"] = hash
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.GetMe(ctx, userID)
}

func (s *service) ensureFree(ctx context.Context, column, value string, self uuid.UUID) error {
	taken, err := s.repo.Taken(ctx, column, value, self)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check "+column)
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, column+" already taken")
	}
	return nil
}
