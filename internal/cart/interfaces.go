package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart and order services.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	InsertIfAbsent(ctx context.Context, item *models.CartItem) (bool, error)
	Increment(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	LockOwned(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error)
	DeleteOwned(ctx context.Context, userID uuid.UUID, itemIDs ...uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
