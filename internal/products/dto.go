package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// ProductDTO is the public catalog representation.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	ReleaseYear int             `json:"release_year"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
	Platform    string          `json:"platform"`
	Rating      float64         `json:"rating"`
	RatingCount int             `json:"rating_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		ReleaseYear: p.ReleaseYear,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Platform:    p.Platform,
		Rating:      p.Rating,
		RatingCount: p.RatingCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
