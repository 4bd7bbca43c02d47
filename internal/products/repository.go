package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retrostore/retrostore-backend/internal/repo"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
)

// Repository is the catalog store.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// FindByID loads a product or returns a NotFound error.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, repo.NotFound(err, "product not found")
	}
	return &product, nil
}

// FindByIDForUpdate loads and row-locks a product inside the caller's transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, repo.NotFound(err, "product not found")
	}
	return &product, nil
}

// FindByIDs returns the products keyed by id; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List applies filters, ordering and page bounds and returns the page plus the total match count.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Product, int64, error) {
	order, err := orderClause(query.Ordering)
	if err != nil {
		return nil, 0, err
	}

	filtered := func() *gorm.DB {
		scoped := r.DB(ctx).Model(&models.Product{})
		if search := strings.TrimSpace(query.Search); search != "" {
			pattern := likePattern(search)
			scoped = scoped.Where(
				`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
				pattern, pattern, pattern,
			)
		}
		if platform := strings.TrimSpace(query.Platform); platform != "" {
			scoped = scoped.Where("platform = ?", platform)
		}
		if brand := strings.TrimSpace(query.Brand); brand != "" {
			scoped = scoped.Where("brand = ?", brand)
		}
		return scoped
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err = filtered().
		Order(order).
		Order("id ASC").
		Offset(query.Page.Offset()).
		Limit(query.Page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpsertByName inserts the product or refreshes the catalog fields of the row
// with the same name. Rating aggregates are never touched.
func (r *Repository) UpsertByName(ctx context.Context, product *models.Product) (created bool, err error) {
	var existing models.Product
	err = r.DB(ctx).Where("name = ?", product.Name).First(&existing).Error
	switch {
	case err == nil:
		product.ID = existing.ID
		return false, r.DB(ctx).Model(&existing).Updates(map[string]any{
			"brand":        product.Brand,
			"release_year": product.ReleaseYear,
			"price":        product.Price,
			"image_url":    product.ImageURL,
			"description":  product.Description,
			"platform":     product.Platform,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		return true, r.DB(ctx).Create(product).Error
	default:
		return false, err
	}
}

// UpdateRatingAggregate stores the recomputed mean and count.
func (r *Repository) UpdateRatingAggregate(ctx context.Context, productID uuid.UUID, average float64, count int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating":       average,
			"rating_count": count,
		}).Error
}

// ListRatingSnapshots pages through products by id for aggregate reconciliation.
func (r *Repository) ListRatingSnapshots(ctx context.Context, after uuid.UUID, limit int) ([]models.Product, error) {
	var rows []models.Product
	query := r.DB(ctx).Select("id", "rating", "rating_count")
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	err := query.Order("id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}
