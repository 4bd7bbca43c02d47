package controllers

import (
	"net/http"
	"strings"

	"github.com/retrostore/retrostore-backend/api/responses"
	"github.com/retrostore/retrostore-backend/api/validators"
	product "github.com/retrostore/retrostore-backend/internal/products"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/pagination"
)

// ProductList is the public catalog browse endpoint.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		query := product.ListQuery{
			Search:   validators.SanitizeString(q.Get("search"), 100),
			Platform: strings.TrimSpace(q.Get("platform")),
			Brand:    strings.TrimSpace(q.Get("brand")),
			Ordering: strings.TrimSpace(q.Get("ordering")),
			Page:     pagination.Page{Number: page, Size: size},
		}

		result, err := svc.ListProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
