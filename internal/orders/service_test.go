package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/internal/cart"
	"github.com/retrostore/retrostore-backend/pkg/db"
	"github.com/retrostore/retrostore-backend/pkg/db/dbtest"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/outbox/payloads"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

type fixture struct {
	client *db.Client
	conn   *gorm.DB
	repo   Repository
	cart   cart.CartRepository
	outbox *outbox.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	return fixture{
		client: client,
		conn:   conn,
		repo:   NewRepository(conn),
		cart:   cart.NewRepository(conn),
		outbox: outbox.NewService(outbox.NewRepository(conn), nil),
	}
}

func (f fixture) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(f.repo, f.cart, f.client, f.outbox)
	require.NoError(t, err)
	return svc
}

func (f fixture) addToCart(t *testing.T, userID, productID uuid.UUID, qty int) models.CartItem {
	t.Helper()
	item := models.CartItem{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: qty}
	require.NoError(t, f.conn.Create(&item).Error)
	return item
}

func shipping() ShippingInfo {
	return ShippingInfo{Name: "Alice", Email: "alice@example.com", Phone: "555-0100", Address: "1 Main St"}
}

func payment() PaymentInfo {
	return PaymentInfo{Card: "4111111111111111", Expiry: "12/30", CVV: "123"}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	y := dbtest.CreateProduct(t, f.conn, "Y", "5.00")
	a := f.addToCart(t, user.ID, x.ID, 2)
	b := f.addToCart(t, user.ID, y.ID, 1)

	order, err := svc.CreateOrder(ctx, user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{a.ID, b.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.NoError(t, err)
	require.True(t, order.TotalPrice.Equal(decimal.RequireFromString("25.00")), "total %s", order.TotalPrice)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)

	remaining, err := f.cart.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	var lines []models.OrderLineItem
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).Find(&lines).Error)
	require.Len(t, lines, 2)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventOrderCreated, events[0].EventType)
	require.Equal(t, order.ID, events[0].AggregateID)

	var envelope outbox.Envelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var data payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, 3, data.ItemCount)
	require.NotContains(t, string(events[0].Payload), "4111111111111111")
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 1)

	order, err := svc.CreateOrder(ctx, user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{item.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", x.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)

	again, err := svc.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	require.True(t, again.TotalPrice.Equal(decimal.RequireFromString("10.00")))
	require.True(t, again.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateOrderRejectsBadSelections(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	alice := dbtest.CreateUser(t, f.conn, "alice")
	bob := dbtest.CreateUser(t, f.conn, "bob")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	mine := f.addToCart(t, alice.ID, x.ID, 1)
	theirs := f.addToCart(t, bob.ID, x.ID, 1)

	cases := map[string][]uuid.UUID{
		"empty":     nil,
		"duplicate": {mine.ID, mine.ID},
		"foreign":   {mine.ID, theirs.ID},
		"unknown":   {uuid.New()},
	}
	for name, ids := range cases {
		_, err := svc.CreateOrder(ctx, alice.ID, CreateOrderInput{
			CartItemIDs: ids,
			Shipping:    shipping(),
			Payment:     payment(),
		})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%s: %v", name, err)
	}

	require.Zero(t, countRows(t, f.conn, &models.Order{}))
	require.EqualValues(t, 2, countRows(t, f.conn, &models.CartItem{}))
}

func TestCreateOrderRequiresShipping(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 1)

	_, err := svc.CreateOrder(context.Background(), user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{item.ID},
		Shipping:    ShippingInfo{Name: "Alice"},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderRejectsOversizedSnapshotFields(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 1)

	cases := []struct {
		field  string
		mutate func(*CreateOrderInput)
	}{
		{"shipping_name", func(in *CreateOrderInput) { in.Shipping.Name = strings.Repeat("é", maxShippingName+1) }},
		{"shipping_email", func(in *CreateOrderInput) { in.Shipping.Email = strings.Repeat("a", maxShippingEmail) + "@x.io" }},
		{"shipping_phone", func(in *CreateOrderInput) { in.Shipping.Phone = strings.Repeat("5", maxShippingPhone+1) }},
		{"shipping_address", func(in *CreateOrderInput) { in.Shipping.Address = strings.Repeat("b", maxShippingAddress+1) }},
		{"payment_card", func(in *CreateOrderInput) { in.Payment.Card = strings.Repeat("4", 40) }},
		{"payment_expiry", func(in *CreateOrderInput) { in.Payment.Expiry = "12/2030" }},
		{"payment_cvv", func(in *CreateOrderInput) { in.Payment.CVV = "12345" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			input := CreateOrderInput{CartItemIDs: []uuid.UUID{item.ID}, Shipping: shipping(), Payment: payment()}
			tc.mutate(&input)

			_, err := svc.CreateOrder(context.Background(), user.ID, input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Contains(t, typed.Details().(map[string]any)["max_length"], tc.field)
		})
	}
	require.Zero(t, countRows(t, f.conn, &models.Order{}))

	input := CreateOrderInput{CartItemIDs: []uuid.UUID{item.ID}, Shipping: shipping(), Payment: payment()}
	input.Shipping.Name = strings.Repeat("é", maxShippingName)
	_, err := svc.CreateOrder(context.Background(), user.ID, input)
	require.NoError(t, err)
}

func TestCreateOrderStripsControlCharacters(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 1)

	input := CreateOrderInput{CartItemIDs: []uuid.UUID{item.ID}, Shipping: shipping(), Payment: payment()}
	input.Shipping.Name = "Al\x00ice"
	input.Shipping.Address = "1 Main St\nApt 2\x00"
	order, err := svc.CreateOrder(context.Background(), user.ID, input)
	require.NoError(t, err)
	require.Equal(t, "Alice", order.ShippingName)

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, "1 Main St Apt 2", stored.ShippingAddress)

	input.Shipping.Name = "\x00\x00"
	_, err = svc.CreateOrder(context.Background(), user.ID, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type failingLineItems struct {
	Repository
}

func (r failingLineItems) WithTx(tx *gorm.DB) Repository {
	return failingLineItems{Repository: r.Repository.WithTx(tx)}
}

func (failingLineItems) CreateLineItems(context.Context, []models.OrderLineItem) error {
	return errors.New("disk full")
}

func TestCreateOrderRollsBackOnLineItemFailure(t *testing.T) {
	f := newFixture(t)
	f.repo = failingLineItems{Repository: f.repo}
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 2)

	_, err := svc.CreateOrder(context.Background(), user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{item.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.Error(t, err)
	require.Zero(t, countRows(t, f.conn, &models.Order{}))
	require.Zero(t, countRows(t, f.conn, &models.OutboxEvent{}))
	require.EqualValues(t, 1, countRows(t, f.conn, &models.CartItem{}))
}

type shortDelete struct {
	cart.CartRepository
}

func (r shortDelete) WithTx(tx *gorm.DB) cart.CartRepository {
	return shortDelete{CartRepository: r.CartRepository.WithTx(tx)}
}

func (r shortDelete) DeleteOwned(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) (int64, error) {
	deleted, err := r.CartRepository.DeleteOwned(ctx, userID, ids[1:]...)
	return deleted, err
}

func TestCreateOrderConflictsWhenCartChanges(t *testing.T) {
	f := newFixture(t)
	f.cart = shortDelete{CartRepository: f.cart}
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	y := dbtest.CreateProduct(t, f.conn, "Y", "5.00")
	a := f.addToCart(t, user.ID, x.ID, 1)
	b := f.addToCart(t, user.ID, y.ID, 1)

	_, err := svc.CreateOrder(context.Background(), user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{a.ID, b.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
	require.Zero(t, countRows(t, f.conn, &models.Order{}))
	require.EqualValues(t, 2, countRows(t, f.conn, &models.CartItem{}))
}

func TestOrderJSONOmitsPayment(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, user.ID, x.ID, 1)

	order, err := svc.CreateOrder(context.Background(), user.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{item.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(order)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"payment_card", "payment_expiry", "payment_cvv", "PaymentCard"} {
		require.NotContains(t, fields, key)
	}
	require.NotContains(t, string(raw), "4111111111111111")
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	alice := dbtest.CreateUser(t, f.conn, "alice")
	bob := dbtest.CreateUser(t, f.conn, "bob")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")
	item := f.addToCart(t, alice.ID, x.ID, 1)

	order, err := svc.CreateOrder(ctx, alice.ID, CreateOrderInput{
		CartItemIDs: []uuid.UUID{item.ID},
		Shipping:    shipping(),
		Payment:     payment(),
	})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, bob.ID, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := svc.GetOrder(ctx, alice.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	bobs, err := svc.ListOrders(ctx, bob.ID, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, bobs.Items)
}

func TestListOrdersPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.conn, "alice")
	x := dbtest.CreateProduct(t, f.conn, "X", "10.00")

	var created []uuid.UUID
	for i := 0; i < 3; i++ {
		item := f.addToCart(t, user.ID, x.ID, i+1)
		order, err := svc.CreateOrder(ctx, user.ID, CreateOrderInput{
			CartItemIDs: []uuid.UUID{item.ID},
			Shipping:    shipping(),
			Payment:     payment(),
		})
		require.NoError(t, err)
		created = append(created, order.ID)
	}

	first, err := svc.ListOrders(ctx, user.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListOrders(ctx, user.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(first.Items, second.Items...) {
		seen[o.ID] = true
	}
	for _, id := range created {
		require.True(t, seen[id])
	}

	_, err = svc.ListOrders(ctx, user.ID, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
