package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

// MaxQuantityPerRequest bounds a single add or update.
const MaxQuantityPerRequest = 999

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the cart manager operations. Every method takes the caller's
// user ID and only ever touches that user's rows.
type Service interface {
	AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, bool, error)
	ListCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartItemDTO, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxQuantityPerRequest {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerRequest)).
			WithDetails(map[string]any{"quantity": quantity})
	}
	return nil
}

// AddOrIncrement merges quantity into the existing (user, product) row or creates it.
// The boolean result is true when a new row was created.
func (s *service) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartItemDTO, bool, error) {
	if userID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if productID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, false, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, false, err
	}

	var (
		item    *models.CartItem
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inserted, err := repo.InsertIfAbsent(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		})
		if err != nil {
			return err
		}
		created = inserted
		if !inserted {
			if err := repo.Increment(ctx, userID, productID, quantity); err != nil {
				return err
			}
		}
		item, err = repo.FindByUserAndProduct(ctx, userID, productID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return NewCartItemDTO(item), created, nil
}

func (s *service) ListCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(items), nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartItemDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	updated, err := s.repo.SetQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item, err := s.repo.FindOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return NewCartItemDTO(item), nil
}

func (s *service) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	deleted, err := s.repo.DeleteOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}
