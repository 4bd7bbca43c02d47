package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/logger"
)

type console struct {
	name        string
	brand       string
	year        int
	price       string
	image       string
	description string
	platform    string
}

var consoles = []console{
	{"Nintendo Entertainment System", "Nintendo", 1983, "99.99", "/static/images/nes.png", "The NES is an 8-bit third-generation home video game console.", "NES"},
	{"Super Nintendo Entertainment System", "Nintendo", 1990, "119.99", "/static/images/snes.png", "The SNES is a 16-bit home video game console.", "SNES"},
	{"Sega Genesis", "Sega", 1988, "89.99", "/static/images/genesis.png", "The Genesis is a 16-bit fourth-generation home video game console.", "Genesis"},
	{"Sony PlayStation", "Sony", 1994, "129.99", "https://picsum.photos/300/200?random=4", "The PlayStation is a fifth-generation home video game console.", "PlayStation"},
	{"Nintendo 64", "Nintendo", 1996, "149.99", "https://picsum.photos/300/200?random=5", "The N64 is a 64-bit home video game console.", "N64"},
	{"Atari 2600", "Atari", 1977, "79.99", "https://picsum.photos/300/200?random=6", "The Atari 2600 is a second-generation home video game console.", "Atari"},
	{"Sega Dreamcast", "Sega", 1998, "99.99", "https://picsum.photos/300/200?random=7", "The Dreamcast is a sixth-generation home video game console.", "Dreamcast"},
	{"Sony PlayStation 2", "Sony", 2000, "149.99", "/static/ps2.png", "The PlayStation 2 is the best-selling video game console of all time.", "PlayStation 2"},
	{"Game Boy", "Nintendo", 1989, "69.99", "https://picsum.photos/300/200?random=9", "The Game Boy is an 8-bit handheld game console.", "Game Boy"},
	{"Sega Saturn", "Sega", 1994, "139.99", "https://picsum.photos/300/200?random=10", "The Saturn is a 32-bit fifth-generation home video game console.", "Saturn"},
}

type productUpserter interface {
	UpsertByName(ctx context.Context, product *models.Product) (bool, error)
}

type seedResult struct {
	Created int
	Updated int
}

// seedCatalog upserts every console by name. Ratings start at zero and are
// left alone on rows that already exist.
func seedCatalog(ctx context.Context, repo productUpserter, logg *logger.Logger) (seedResult, error) {
	var res seedResult
	for _, c := range consoles {
		price, err := decimal.NewFromString(c.price)
		if err != nil {
			return res, fmt.Errorf("price for %s: %w", c.name, err)
		}
		product := &models.Product{
			Name:        c.name,
			Brand:       c.brand,
			ReleaseYear: c.year,
			Price:       price,
			ImageURL:    c.image,
			Description: c.description,
			Platform:    c.platform,
		}
		created, err := repo.UpsertByName(ctx, product)
		if err != nil {
			return res, fmt.Errorf("upsert %s: %w", c.name, err)
		}

		fctx := logg.WithFields(ctx, map[string]any{"product": c.name, "product_id": product.ID.String()})
		if created {
			res.Created++
			logg.Info(fctx, "seed.product.created")
			continue
		}
		res.Updated++
		logg.Info(fctx, "seed.product.updated")
	}
	return res, nil
}
