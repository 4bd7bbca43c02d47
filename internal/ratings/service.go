package ratings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/outbox/payloads"
)

const (
	MinScore = 1
	MaxScore = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the rating aggregator.
type Service interface {
	UpsertRating(ctx context.Context, userID, productID uuid.UUID, score int) (*SubmitResult, error)
	GetSummary(ctx context.Context, userID, productID uuid.UUID) (*Summary, error)
}

type service struct {
	ratings  *Repository
	products *product.Repository
	tx       txRunner
	outbox   outboxEmitter
}

func NewService(ratings *Repository, products *product.Repository, tx txRunner, emitter outboxEmitter) (Service, error) {
	if ratings == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{ratings: ratings, products: products, tx: tx, outbox: emitter}, nil
}

// UpsertRating stores the caller's score and refreshes the product aggregate.
// The product row is locked first so concurrent raters of one product serialize
// and each recompute sees every committed rating.
func (s *service) UpsertRating(ctx context.Context, userID, productID uuid.UUID, score int) (*SubmitResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if score < MinScore || score > MaxScore {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore)).
			WithDetails(map[string]any{"score": score})
	}

	var agg Aggregate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		ratings := s.ratings.WithTx(tx)

		if _, err := products.FindByIDForUpdate(ctx, productID); err != nil {
			return err
		}
		if err := ratings.Upsert(ctx, &models.Rating{
			ProductID: productID,
			UserID:    userID,
			Score:     score,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store rating")
		}

		var err error
		agg, err = ratings.AggregateFor(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate ratings")
		}
		if err := products.UpdateRatingAggregate(ctx, productID, agg.Average, agg.Count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRatingSubmitted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         &outbox.Actor{UserID: userID, Role: enums.UserRoleUser},
			Data: payloads.RatingSubmittedEvent{
				ProductID:     productID,
				UserID:        userID,
				Score:         score,
				AverageRating: agg.Average,
				RatingCount:   agg.Count,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		Success:       true,
		Score:         score,
		AverageRating: agg.Average,
		RatingCount:   agg.Count,
	}, nil
}

func (s *service) GetSummary(ctx context.Context, userID, productID uuid.UUID) (*Summary, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{AverageRating: p.Rating, RatingCount: p.RatingCount}
	if userID == uuid.Nil {
		return summary, nil
	}
	own, err := s.ratings.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if own != nil {
		score := own.Score
		summary.UserRating = &score
	}
	return summary, nil
}
