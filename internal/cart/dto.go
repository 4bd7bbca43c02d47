package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// CartItemDTO is one cart line joined with the current product snapshot.
type CartItemDTO struct {
	ID        uuid.UUID           `json:"id"`
	Product   *product.ProductDTO `json:"product"`
	Quantity  int                 `json:"quantity"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CartDTO is the caller's full cart priced at current catalog prices.
type CartDTO struct {
	Items     []CartItemDTO   `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

func NewCartItemDTO(item *models.CartItem) *CartItemDTO {
	if item == nil {
		return nil
	}
	dto := &CartItemDTO{
		ID:        item.ID,
		Quantity:  item.Quantity,
		Subtotal:  decimal.Zero,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Product != nil {
		dto.Product = product.NewProductDTO(item.Product)
		dto.Subtotal = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	}
	return dto
}

func NewCartDTO(items []models.CartItem) *CartDTO {
	out := &CartDTO{Items: make([]CartItemDTO, 0, len(items)), Total: decimal.Zero}
	for i := range items {
		dto := NewCartItemDTO(&items[i])
		out.Items = append(out.Items, *dto)
		out.ItemCount += dto.Quantity
		out.Total = out.Total.Add(dto.Subtotal)
	}
	return out
}
