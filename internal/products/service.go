package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

// Service exposes the public catalog read paths.
type Service interface {
	ListProducts(ctx context.Context, query ListQuery) (*ProductListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

type catalogReader interface {
	List(ctx context.Context, query ListQuery) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo catalogReader
}

func NewService(repo catalogReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, query ListQuery) (*ProductListResult, error) {
	query.Page = pagination.NormalizePage(query.Page.Number, query.Page.Size)
	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Items:      items,
		Page:       query.Page.Number,
		PageSize:   query.Page.Size,
		Total:      total,
		TotalPages: query.Page.TotalPages(total),
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}
