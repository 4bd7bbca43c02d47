package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retrostore/retrostore-backend/pkg/enums"
)

// Order is the immutable snapshot produced at checkout.
//
// Payment fields hold raw card data as a placeholder for a payment gateway
// integration that does not exist yet. They are never serialized.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ShippingName    string            `gorm:"column:shipping_name;not null"`
	ShippingEmail   string            `gorm:"column:shipping_email;not null"`
	ShippingPhone   string            `gorm:"column:shipping_phone;not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	PaymentCard     string            `gorm:"column:payment_card;not null" json:"-"`
	PaymentExpiry   string            `gorm:"column:payment_expiry;not null" json:"-"`
	PaymentCVV      string            `gorm:"column:payment_cvv;not null" json:"-"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
