package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Rating and RatingCount are maintained by the
// ratings service and always reflect the rows in ratings.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null;uniqueIndex"`
	Brand       string          `gorm:"column:brand;not null"`
	ReleaseYear int             `gorm:"column:release_year;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	Description string          `gorm:"column:description;not null;default:''"`
	Platform    string          `gorm:"column:platform;not null"`
	Rating      float64         `gorm:"column:rating;not null;default:0"`
	RatingCount int             `gorm:"column:rating_count;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
