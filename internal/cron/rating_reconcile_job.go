package cron

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/internal/ratings"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/logger"
)

const (
	defaultReconcileBatch = 200
	ratingEpsilon         = 1e-9
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productSnapshots interface {
	ListRatingSnapshots(ctx context.Context, after uuid.UUID, limit int) ([]models.Product, error)
}

type ratingAggregates interface {
	AllAggregates(ctx context.Context) (map[uuid.UUID]ratings.Aggregate, error)
}

// RatingReconcileJobParams configures the rating aggregate repair job.
type RatingReconcileJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Products productSnapshots
	Ratings  ratingAggregates
	Batch    int
}

// NewRatingReconcileJob builds a job that repairs products whose stored mean or
// count no longer matches their ratings rows.
func NewRatingReconcileJob(params RatingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &ratingReconcileJob{
		logg:     params.Logger,
		db:       params.DB,
		products: params.Products,
		ratings:  params.Ratings,
		batch:    batch,
		repair:   repairRatingAggregate,
	}, nil
}

type ratingReconcileJob struct {
	logg     *logger.Logger
	db       txRunner
	products productSnapshots
	ratings  ratingAggregates
	batch    int
	repair   func(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

func (j *ratingReconcileJob) Name() string { return "rating-reconcile" }

func (j *ratingReconcileJob) Run(ctx context.Context) error {
	computed, err := j.ratings.AllAggregates(ctx)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}

	var (
		errs     error
		scanned  int
		repaired int
		after    uuid.UUID
	)
	for {
		rows, err := j.products.ListRatingSnapshots(ctx, after, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list products: %w", err))
		}
		for _, p := range rows {
			scanned++
			if !drifted(p, computed[p.ID]) {
				continue
			}
			productID := p.ID
			if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
				return j.repair(ctx, tx, productID)
			}); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %s: %w", productID, err))
				continue
			}
			repaired++
		}
		if len(rows) < j.batch {
			break
		}
		after = rows[len(rows)-1].ID
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  scanned,
		"repaired": repaired,
	})
	j.logg.Info(reportCtx, "rating reconcile loop complete")
	return errs
}

func drifted(p models.Product, agg ratings.Aggregate) bool {
	return p.RatingCount != agg.Count || math.Abs(p.Rating-agg.Average) > ratingEpsilon
}

// repairRatingAggregate recomputes under the product row lock so it cannot race
// a concurrent rating submission.
func repairRatingAggregate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	products := product.NewRepository(tx)
	if _, err := products.FindByIDForUpdate(ctx, productID); err != nil {
		return err
	}
	agg, err := ratings.NewRepository(tx).AggregateFor(ctx, productID)
	if err != nil {
		return err
	}
	return products.UpdateRatingAggregate(ctx, productID, agg.Average, agg.Count)
}
