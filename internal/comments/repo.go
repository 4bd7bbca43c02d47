package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/internal/repo"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListByProduct returns a product's comments newest first with their authors loaded.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Comment, error) {
	var rows []models.Comment
	err := r.DB(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if err := r.DB(ctx).Omit("User").Create(comment).Error; err != nil {
		return err
	}
	return r.DB(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error
}

// FindOnProduct scopes the lookup to the product so a comment ID from another
// product is reported as missing.
func (r *Repository) FindOnProduct(ctx context.Context, productID, commentID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.DB(ctx).
		Where("id = ? AND product_id = ?", commentID, productID).
		First(&comment).Error
	if err != nil {
		return nil, repo.NotFound(err, "comment not found")
	}
	return &comment, nil
}

func (r *Repository) Delete(ctx context.Context, commentID uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Comment{}, "id = ?", commentID).Error
}
