package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/retrostore/retrostore-backend/api/routes"
	"github.com/retrostore/retrostore-backend/internal/auth"
	"github.com/retrostore/retrostore-backend/internal/cart"
	"github.com/retrostore/retrostore-backend/internal/comments"
	"github.com/retrostore/retrostore-backend/internal/orders"
	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/internal/ratings"
	"github.com/retrostore/retrostore-backend/internal/users"
	"github.com/retrostore/retrostore-backend/pkg/auth/session"
	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/db"
	"github.com/retrostore/retrostore-backend/pkg/env"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/metrics"
	"github.com/retrostore/retrostore-backend/pkg/migrate"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// PORT is set by the hosting platform and wins over the app setting.
	addr := ":" + env.Get(cfg.App.Port, "PORT")
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Gatherer: reg,
			Metrics:  metrics.NewHTTPMetrics(reg),
		}, services),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager) (routes.Services, error) {
	conn := dbClient.DB()
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	var out routes.Services
	var err error

	if out.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return out, err
	}
	if out.Users, err = users.NewService(userRepo, cfg.Password); err != nil {
		return out, err
	}
	if out.Products, err = product.NewService(productRepo); err != nil {
		return out, err
	}
	if out.Cart, err = cart.NewService(cartRepo, dbClient, productRepo); err != nil {
		return out, err
	}
	if out.Orders, err = orders.NewService(orders.NewRepository(conn), cartRepo, dbClient, emitter); err != nil {
		return out, err
	}
	if out.Ratings, err = ratings.NewService(ratings.NewRepository(conn), productRepo, dbClient, emitter); err != nil {
		return out, err
	}
	if out.Comments, err = comments.NewService(comments.NewRepository(conn), productRepo); err != nil {
		return out, err
	}
	return out, nil
}
