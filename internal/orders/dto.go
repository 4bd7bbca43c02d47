package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	"github.com/retrostore/retrostore-backend/pkg/types"
)

// ShippingInfo is copied verbatim onto the order.
type ShippingInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// PaymentInfo is stored unprocessed and never returned or logged.
type PaymentInfo struct {
	Card   string
	Expiry string
	CVV    string
}

// CreateOrderInput captures a checkout request. There is no total: it is
// always computed from catalog prices.
type CreateOrderInput struct {
	CartItemIDs []uuid.UUID
	Shipping    ShippingInfo
	Payment     PaymentInfo
}

// OrderDTO is the client view of an order. It has no payment fields.
type OrderDTO struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	Status          enums.OrderStatus  `json:"status"`
	ShippingName    string             `json:"shipping_name"`
	ShippingEmail   string             `json:"shipping_email"`
	ShippingPhone   string             `json:"shipping_phone"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderLineItemDTO `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type OrderLineItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderList is one cursor page of the caller's orders.
type OrderList = types.CursorResult[OrderDTO]

func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		TotalPrice:      order.TotalPrice,
		Status:          order.Status,
		ShippingName:    order.ShippingName,
		ShippingEmail:   order.ShippingEmail,
		ShippingPhone:   order.ShippingPhone,
		ShippingAddress: order.ShippingAddress,
		Items:           make([]OrderLineItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderLineItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		})
	}
	return dto
}
