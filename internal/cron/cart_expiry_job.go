package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/retrostore/retrostore-backend/pkg/logger"
)

const defaultCartTTLDays = 30

type CartExpiryJobParams struct {
	Logger     *logger.Logger
	Repository staleCartRepo
	TTLDays    int
}

type staleCartRepo interface {
	DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCartExpiryJob removes cart items nobody has touched within the TTL.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	ttl := params.TTLDays
	if ttl <= 0 {
		ttl = defaultCartTTLDays
	}
	return &cartExpiryJob{
		logg:    params.Logger,
		repo:    params.Repository,
		ttlDays: ttl,
		now:     time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg    *logger.Logger
	repo    staleCartRepo
	ttlDays int
	now     func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-time.Duration(j.ttlDays) * 24 * time.Hour)
	deleted, err := j.repo.DeleteStaleBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"ttl_days":     j.ttlDays,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale cart items removed")
	return nil
}
