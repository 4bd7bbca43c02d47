package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/internal/repo"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts a new user. Unique violations on username or email surface as Conflict.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return repo.Conflict(r.DB(ctx).Create(user).Error, "username or email already taken")
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, repo.NotFound(err, "user not found")
	}
	return &user, nil
}

// FindByIdentifier matches a username exactly or an email case-insensitively.
func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		return nil, repo.NotFound(err, "user not found")
	}
	return &user, nil
}

// Taken reports whether column already holds value on a user other than exclude.
func (r *Repository) Taken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error) {
	if column != "username" && column != "email" {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "unsupported uniqueness column")
	}
	var count int64
	query := r.DB(ctx).Model(&models.User{}).Where(column+" = ?", value)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// Update applies the provided column changes.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	err := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
	return repo.Conflict(err, "username or email already taken")
}
