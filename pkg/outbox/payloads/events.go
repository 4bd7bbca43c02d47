package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted once an order commits. It never carries payment data.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	ItemCount  int                `json:"item_count"`
	LineItems  []OrderCreatedLine `json:"line_items"`
}

type OrderCreatedLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// RatingSubmittedEvent carries the recomputed product aggregate after a vote.
type RatingSubmittedEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	UserID        uuid.UUID `json:"user_id"`
	Score         int       `json:"score"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}
