package orders

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/internal/cart"
	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/pkg/checkout"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/outbox/payloads"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type priceReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// priceReaderFactory binds a catalog reader to the checkout transaction.
type priceReaderFactory func(tx *gorm.DB) priceReader

func defaultPriceReaders(tx *gorm.DB) priceReader {
	return product.NewRepository(tx)
}

// Service exposes checkout and order history.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	cart     cart.CartRepository
	tx       txRunner
	outbox   outboxEmitter
	products priceReaderFactory
}

// NewService wires the order service.
func NewService(repo Repository, cartRepo cart.CartRepository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     repo,
		cart:     cartRepo,
		tx:       tx,
		outbox:   emitter,
		products: defaultPriceReaders,
	}, nil
}

// Snapshot column widths, in characters. shipping_email is unbounded text in
// the schema; 254 is the longest deliverable address.
const (
	maxShippingName    = 100
	maxShippingEmail   = 254
	maxShippingPhone   = 30
	maxShippingAddress = 255
	maxPaymentCard     = 20
	maxPaymentExpiry   = 5
	maxPaymentCVV      = 4
)

type snapshotField struct {
	name     string
	value    *string
	max      int
	required bool
}

// normalizeSnapshot strips control characters from the shipping and payment
// fields in place and checks them against the orders columns.
func normalizeSnapshot(input *CreateOrderInput) error {
	fields := []snapshotField{
		{"shipping_name", &input.Shipping.Name, maxShippingName, true},
		{"shipping_email", &input.Shipping.Email, maxShippingEmail, true},
		{"shipping_phone", &input.Shipping.Phone, maxShippingPhone, false},
		{"shipping_address", &input.Shipping.Address, maxShippingAddress, true},
		{"payment_card", &input.Payment.Card, maxPaymentCard, false},
		{"payment_expiry", &input.Payment.Expiry, maxPaymentExpiry, false},
		{"payment_cvv", &input.Payment.CVV, maxPaymentCVV, false},
	}

	missing := []string{}
	tooLong := map[string]int{}
	for _, f := range fields {
		*f.value = stripControl(*f.value)
		if *f.value == "" {
			if f.required {
				missing = append(missing, f.name)
			}
			continue
		}
		if utf8.RuneCountInString(*f.value) > f.max {
			tooLong[f.name] = f.max
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping details incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if len(tooLong) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order fields exceed maximum length").
			WithDetails(map[string]any{"max_length": tooLong})
	}
	return nil
}

// stripControl turns line breaks and tabs into spaces, drops every other
// control rune (NUL included, which Postgres text rejects) and trims.
func stripControl(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s))
}

// CreateOrder turns the selected cart rows into a pending order. The cart rows
// are locked, priced from the catalog, snapshotted into line items and then
// removed, all in one transaction together with the order_created event.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if err := checkout.ValidateSelection(input.CartItemIDs); err != nil {
		return nil, err
	}
	if err := normalizeSnapshot(&input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cart.WithTx(tx)
		orderRepo := s.repo.WithTx(tx)

		rows, err := cartRepo.LockOwned(ctx, userID, input.CartItemIDs)
		if err != nil {
			return err
		}
		if len(rows) != len(input.CartItemIDs) {
			return checkout.ResolutionError(input.CartItemIDs, cartItemIDs(rows))
		}

		catalog, err := s.products(tx).FindByIDs(ctx, productIDs(rows))
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:              uuid.New(),
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			ShippingName:    input.Shipping.Name,
			ShippingEmail:   input.Shipping.Email,
			ShippingPhone:   input.Shipping.Phone,
			ShippingAddress: input.Shipping.Address,
			PaymentCard:     input.Payment.Card,
			PaymentExpiry:   input.Payment.Expiry,
			PaymentCVV:      input.Payment.CVV,
		}

		total := decimal.Zero
		lines := make([]models.OrderLineItem, 0, len(rows))
		for _, row := range rows {
			p, ok := catalog[row.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "product no longer available").
					WithDetails(map[string]any{"product_id": row.ProductID})
			}
			productID := p.ID
			line := models.OrderLineItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   &productID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    row.Quantity,
			}
			total = total.Add(line.Subtotal())
			lines = append(lines, line)
		}
		order.TotalPrice = total.Round(2)

		if err := orderRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := orderRepo.CreateLineItems(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order line items")
		}

		deleted, err := cartRepo.DeleteOwned(ctx, userID, input.CartItemIDs...)
		if err != nil {
			return err
		}
		if deleted != int64(len(rows)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout").
				WithDetails(map[string]any{"expected": len(rows), "deleted": deleted})
		}

		if err := s.outbox.Emit(ctx, tx, orderCreatedEvent(order, lines)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order_created")
		}

		order.Items = lines
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(created), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	result := &OrderList{Items: make([]OrderDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewOrderDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func orderCreatedEvent(order *models.Order, lines []models.OrderLineItem) outbox.DomainEvent {
	data := payloads.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		LineItems:  make([]payloads.OrderCreatedLine, 0, len(lines)),
	}
	for _, line := range lines {
		data.ItemCount += line.Quantity
		data.LineItems = append(data.LineItems, payloads.OrderCreatedLine{
			ProductID:   *line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.Actor{UserID: order.UserID, Role: enums.UserRoleUser},
		Data:          data,
	}
}

func cartItemIDs(rows []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func productIDs(rows []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	return ids
}
