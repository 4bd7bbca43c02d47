package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retrostore/retrostore-backend/api/controllers"
	"github.com/retrostore/retrostore-backend/api/middleware"
	"github.com/retrostore/retrostore-backend/internal/auth"
	"github.com/retrostore/retrostore-backend/internal/cart"
	"github.com/retrostore/retrostore-backend/internal/comments"
	"github.com/retrostore/retrostore-backend/internal/orders"
	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/internal/ratings"
	"github.com/retrostore/retrostore-backend/internal/users"
	"github.com/retrostore/retrostore-backend/pkg/auth/session"
	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/metrics"
	pkgredis "github.com/retrostore/retrostore-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// Services bundles the domain services mounted on the router.
type Services struct {
	Auth     auth.Service
	Users    users.Service
	Products product.Service
	Cart     cart.Service
	Orders   orders.Service
	Ratings  ratings.Service
	Comments comments.Service
}

// Deps carries infrastructure shared by every route.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics
}

func NewRouter(deps Deps, svc Services) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(deps.Redis, middleware.IdempotencyRules(cfg.Eventing), logg)

	readiness := map[string]controllers.Pinger{"postgres": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", controllers.HealthLive(cfg))
		r.Get("/health/ready", controllers.HealthReady(cfg, logg, readiness))
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), deps.Redis, logg)).
				Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.Redis, logg)).
				Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductDetail(svc.Products, logg))
				r.Get("/comments", controllers.CommentList(svc.Comments, logg))

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Post("/comments", controllers.CommentCreate(svc.Comments, logg))
					r.Delete("/comments/{commentId}", controllers.CommentDelete(svc.Comments, logg))
					r.Get("/ratings", controllers.RatingSummary(svc.Ratings, logg))
					r.Post("/ratings", controllers.RatingSubmit(svc.Ratings, logg))
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.UserMe(svc.Users, logg))
				r.Patch("/me", controllers.UserUpdateMe(svc.Users, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(svc.Cart, logg))
				r.With(idempotent).Post("/", controllers.CartAdd(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Patch("/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/{itemId}", controllers.CartDeleteItem(svc.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.With(idempotent).Post("/", controllers.OrderCreate(svc.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svc.Orders, logg))
			})
		})
	})

	return r
}
