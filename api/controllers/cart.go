package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oskaz/oskaz-api/api/middleware"
	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/api/validators"
	cartsvc "github.com/oskaz/oskaz-api/internal/cart"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

type cartManager interface {
	Get(ctx context.Context, sessionID string) *cartsvc.Store
}

func cartStoreFor(r *http.Request, manager cartManager) (*cartsvc.Store, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart session missing")
	}
	return manager.Get(r.Context(), sessionID), nil
}

// CartGet returns the current cart state.
func CartGet(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

type addItemRequest struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	ItemCode      string          `json:"itemCode"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Image         *string         `json:"image"`
	Stock         int             `json:"stock"`
	MinOrderQty   int             `json:"minOrderQty"`
	ItemGroup     string          `json:"itemGroup"`
	WeightPerUnit *float64        `json:"weightPerUnit"`
	WeightUOM     *string         `json:"weightUom"`
	Quantity      *int            `json:"quantity"`
}

// CartAddItem merges the item into the cart, defaulting quantity to 1.
func CartAddItem(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		item := cartsvc.Item{
			ID:            payload.ID,
			Name:          payload.Name,
			ItemCode:      payload.ItemCode,
			Price:         payload.Price,
			Currency:      payload.Currency,
			Image:         payload.Image,
			Stock:         payload.Stock,
			MinOrderQty:   payload.MinOrderQty,
			ItemGroup:     payload.ItemGroup,
			WeightPerUnit: payload.WeightPerUnit,
			WeightUOM:     payload.WeightUOM,
		}

		responses.WriteSuccess(w, store.AddItem(r.Context(), item, quantity))
	}
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartUpdateItem sets the line quantity; zero or negative removes the line.
func CartUpdateItem(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "itemID")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id required"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.UpdateQuantity(r.Context(), itemID, *payload.Quantity))
	}
}

// CartRemoveItem drops the line. Unknown ids are a no-op.
func CartRemoveItem(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID := chi.URLParam(r, "itemID")
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id required"))
			return
		}

		responses.WriteSuccess(w, store.RemoveItem(r.Context(), itemID))
	}
}

// CartClear empties the item list but leaves the visibility flag alone.
func CartClear(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Clear(r.Context()))
	}
}

// CartToggle flips the open/closed flag.
func CartToggle(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Toggle(r.Context()))
	}
}

type visibilityRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// CartSetVisibility sets the open/closed flag explicitly.
func CartSetVisibility(manager cartManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := cartStoreFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload visibilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.SetOpen(r.Context(), *payload.Open))
	}
}
