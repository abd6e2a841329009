package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/api/validators"
	"github.com/oskaz/oskaz-api/internal/catalog"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

type itemsResponse struct {
	Items []catalog.Item `json:"items"`
}

type itemResponse struct {
	Item *catalog.Item `json:"item"`
}

// ItemsList returns published catalog items, filtered and paginated.
func ItemsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), catalog.ListFilter{
			ItemGroup: strings.TrimSpace(r.URL.Query().Get("item_group")),
			Search:    strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemsResponse{Items: items})
	}
}

// ItemGet returns one catalog item by code.
func ItemGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		item, err := svc.GetByCode(r.Context(), chi.URLParam(r, "itemCode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemResponse{Item: item})
	}
}
