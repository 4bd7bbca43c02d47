package product

import (
	"strings"

	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
	"github.com/retrostore/retrostore-backend/pkg/types"
)

// DefaultOrdering lists the newest hardware first.
const DefaultOrdering = "-release_year"

var orderingColumns = map[string]string{
	"price":        "price",
	"release_year": "release_year",
	"rating":       "rating",
	"name":         "name",
}

// ListQuery describes the browse endpoint inputs.
type ListQuery struct {
	Search   string
	Platform string
	Brand    string
	Ordering string
	Page     pagination.Page
}

// ProductListResult is one page of catalog entries.
type ProductListResult = types.PageResult[ProductDTO]

// orderClause turns "price" or "-price" into an ORDER BY fragment.
func orderClause(ordering string) (string, error) {
	ordering = strings.TrimSpace(ordering)
	if ordering == "" {
		ordering = DefaultOrdering
	}
	direction := "ASC"
	field := ordering
	if strings.HasPrefix(ordering, "-") {
		direction = "DESC"
		field = ordering[1:]
	}
	column, ok := orderingColumns[field]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid ordering").
			WithDetails(map[string]any{"ordering": ordering, "allowed": []string{"price", "release_year", "rating", "name"}})
	}
	return column + " " + direction, nil
}

// likePattern escapes LIKE wildcards so user input matches literally.
func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(strings.ToLower(search)) + "%"
}
