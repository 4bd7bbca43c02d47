package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retrostore/retrostore-backend/internal/auth"
	"github.com/retrostore/retrostore-backend/internal/cart"
	"github.com/retrostore/retrostore-backend/internal/orders"
	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/internal/ratings"
	pkgAuth "github.com/retrostore/retrostore-backend/pkg/auth"
	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/metrics"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubProducts struct{}

func (stubProducts) ListProducts(ctx context.Context, query product.ListQuery) (*product.ProductListResult, error) {
	return &product.ProductListResult{Items: []product.ProductDTO{{Name: "Super Nintendo"}}}, nil
}

func (stubProducts) GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id, Name: "Super Nintendo"}, nil
}

type stubCart struct {
	created bool
	calls   int
}

func (s *stubCart) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.CartItemDTO, bool, error) {
	s.calls++
	return &cart.CartItemDTO{ID: uuid.New(), Quantity: quantity}, s.created, nil
}

func (s *stubCart) ListCart(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (s *stubCart) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.CartItemDTO, error) {
	return &cart.CartItemDTO{ID: itemID, Quantity: quantity}, nil
}

func (s *stubCart) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error { return nil }

func (s *stubCart) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) { return 0, nil }

type stubOrders struct{}

func (stubOrders) CreateOrder(ctx context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, nil
}

func (stubOrders) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrders) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return nil, errors.New("not used")
}

type stubRatings struct{}

func (stubRatings) UpsertRating(ctx context.Context, userID, productID uuid.UUID, score int) (*ratings.SubmitResult, error) {
	return &ratings.SubmitResult{Success: true, AverageRating: float64(score), RatingCount: 1}, nil
}

func (stubRatings) GetSummary(ctx context.Context, userID, productID uuid.UUID) (*ratings.Summary, error) {
	return &ratings.Summary{}, nil
}

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (stubAuth) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{}, nil
}

func (stubAuth) Logout(ctx context.Context, accessID string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "retrostore", ExpirationMinutes: 15},
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"*"},
		},
		Eventing: config.EventingConfig{
			OrdersIdempotencyTTL: time.Hour,
			CartIdempotencyTTL:   time.Hour,
		},
	}
}

func newTestRouter(t *testing.T, db stubPinger, cartSvc *stubCart) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       db,
		Sessions: stubSessions{},
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
	}, Services{
		Auth:     stubAuth{},
		Products: stubProducts{},
		Cart:     cartSvc,
		Orders:   stubOrders{},
		Ratings:  stubRatings{},
	})
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{}, &stubCart{})

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{err: errors.New("down")}, &stubCart{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{}, &stubCart{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?ordering=-price", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected product detail 200 got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{}, &stubCart{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/products/" + uuid.NewString() + "/ratings"},
		{http.MethodGet, "/api/v1/products/" + uuid.NewString() + "/ratings"},
		{http.MethodPost, "/api/v1/products/" + uuid.NewString() + "/comments"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestCartAddStatusReflectsMerge(t *testing.T) {
	for _, tc := range []struct {
		created bool
		want    int
	}{{true, http.StatusCreated}, {false, http.StatusOK}} {
		router, cfg := newTestRouter(t, stubPinger{}, &stubCart{created: tc.created})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"product":"`+uuid.NewString()+`","quantity":2}`))
		req.Header.Set("Authorization", bearer(t, cfg))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("created=%v: expected %d got %d: %s", tc.created, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestOrderCreateReturns201(t *testing.T) {
	router, cfg := newTestRouter(t, stubPinger{}, &stubCart{})

	body := `{"items":["` + uuid.NewString() + `"],"shipping_name":"Sam","shipping_email":"sam@example.com","shipping_address":"1 Arcade Way","payment_card":"4111111111111111","payment_expiry":"12/30","payment_cvv":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, cfg))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "payment") {
		t.Fatalf("payment fields leaked: %s", rec.Body.String())
	}
}

func TestRatingSubmitRoute(t *testing.T) {
	router, cfg := newTestRouter(t, stubPinger{}, &stubCart{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+uuid.NewString()+"/ratings", strings.NewReader(`{"score":4}`))
	req.Header.Set("Authorization", bearer(t, cfg))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			Success       bool    `json:"success"`
			AverageRating float64 `json:"average_rating"`
			RatingCount   int     `json:"rating_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Data.Success || payload.Data.AverageRating != 4 || payload.Data.RatingCount != 1 {
		t.Fatalf("unexpected payload %+v", payload.Data)
	}
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{}, &stubCart{})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected http_requests_total in metrics output")
	}
}
