package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retrostore/retrostore-backend/internal/repo"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// Repository persists cart items. Every owner-scoped method filters on user_id so
// another user's row is indistinguishable from a missing one.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// InsertIfAbsent creates the row unless (user_id, product_id) already exists.
// It reports whether a row was inserted.
func (r *Repository) InsertIfAbsent(ctx context.Context, item *models.CartItem) (bool, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Omit("Product").
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Increment adds quantity in a single UPDATE so concurrent merges never lose a write.
func (r *Repository) Increment(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		}).Error
}

func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, repo.NotFound(err, "cart item not found")
	}
	return &item, nil
}

func (r *Repository) FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, repo.NotFound(err, "cart item not found")
	}
	return &item, nil
}

// ListByUser returns the caller's items, oldest first, with their current product.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// LockOwned selects the requested rows owned by userID with FOR UPDATE.
func (r *Repository) LockOwned(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var items []models.CartItem
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *Repository) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error) {
	res := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteOwned(ctx context.Context, userID uuid.UUID, itemIDs ...uuid.UUID) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteStaleBefore drops rows nobody touched since cutoff.
func (r *Repository) DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("updated_at < ?", cutoff).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
