package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/api/responses"
	"github.com/retrostore/retrostore-backend/api/validators"
	"github.com/retrostore/retrostore-backend/internal/orders"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

// createOrderRequest mirrors the checkout form. Item validation and field
// lengths are checked in the service so the rules live in one place.
type createOrderRequest struct {
	Items           []uuid.UUID `json:"items"`
	ShippingName    string      `json:"shipping_name"`
	ShippingEmail   string      `json:"shipping_email"`
	ShippingPhone   string      `json:"shipping_phone"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentCard     string      `json:"payment_card"`
	PaymentExpiry   string      `json:"payment_expiry"`
	PaymentCVV      string      `json:"payment_cvv"`
}

func (r createOrderRequest) toInput() orders.CreateOrderInput {
	return orders.CreateOrderInput{
		CartItemIDs: r.Items,
		Shipping: orders.ShippingInfo{
			Name:    validators.SanitizeString(r.ShippingName, 0),
			Email:   r.ShippingEmail,
			Phone:   validators.SanitizeString(r.ShippingPhone, 0),
			Address: validators.SanitizeString(r.ShippingAddress, 0),
		},
		Payment: orders.PaymentInfo{
			Card:   r.PaymentCard,
			Expiry: r.PaymentExpiry,
			CVV:    r.PaymentCVV,
		},
	}
}

// OrderCreate turns the selected cart lines into a pending order.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListOrders(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
