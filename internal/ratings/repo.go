package ratings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retrostore/retrostore-backend/internal/repo"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// Aggregate is the mean and count of a product's ratings.
type Aggregate struct {
	ProductID uuid.UUID `gorm:"column:product_id"`
	Average   float64   `gorm:"column:average"`
	Count     int       `gorm:"column:count"`
}

// Repository persists ratings.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Upsert inserts the rating or overwrites the score of the existing (product, user) row.
func (r *Repository) Upsert(ctx context.Context, rating *models.Rating) error {
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	now := time.Now()
	rating.CreatedAt = now
	rating.UpdatedAt = now
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(rating).Error
}

// FindByUserAndProduct returns nil when the user has not rated the product.
func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// AggregateFor computes the mean and count for one product. A product with no
// ratings yields a zero mean.
func (r *Repository) AggregateFor(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	agg := Aggregate{ProductID: productID}
	err := r.DB(ctx).
		Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	agg.ProductID = productID
	return agg, err
}

// AllAggregates returns the computed aggregate of every product that has ratings.
func (r *Repository) AllAggregates(ctx context.Context) (map[uuid.UUID]Aggregate, error) {
	var rows []Aggregate
	err := r.DB(ctx).
		Model(&models.Rating{}).
		Select("product_id, AVG(score) AS average, COUNT(*) AS count").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Aggregate, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}
