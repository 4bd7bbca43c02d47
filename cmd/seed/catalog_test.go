package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/pkg/db/dbtest"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/logger"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := product.NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "seed-test", Output: io.Discard})

	first, err := seedCatalog(ctx, repo, logg)
	require.NoError(t, err)
	require.Equal(t, len(consoles), first.Created)
	require.Zero(t, first.Updated)

	second, err := seedCatalog(ctx, repo, logg)
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Equal(t, len(consoles), second.Updated)

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	require.EqualValues(t, 10, count)
}

func TestSeedCatalogKeepsRatingAggregates(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := product.NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "seed-test", Output: io.Discard})

	_, err := seedCatalog(ctx, repo, logg)
	require.NoError(t, err)

	var nes models.Product
	require.NoError(t, conn.Where("name = ?", "Nintendo Entertainment System").First(&nes).Error)
	require.Zero(t, nes.Rating)
	require.Zero(t, nes.RatingCount)

	require.NoError(t, repo.UpdateRatingAggregate(ctx, nes.ID, 4.5, 2))
	_, err = seedCatalog(ctx, repo, logg)
	require.NoError(t, err)

	require.NoError(t, conn.First(&nes, "id = ?", nes.ID).Error)
	require.InDelta(t, 4.5, nes.Rating, 0.0001)
	require.Equal(t, 2, nes.RatingCount)
	require.Equal(t, "/static/images/nes.png", nes.ImageURL)
}
