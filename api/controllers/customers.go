package controllers

import (
	"net/http"
	"strings"

	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/api/validators"
	"github.com/oskaz/oskaz-api/internal/customers"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

type customerResponse struct {
	Customer *customers.Customer `json:"customer"`
}

// CustomerGetByEmail looks up a customer; an unknown email yields
// {"customer": null} rather than 404.
func CustomerGetByEmail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email query parameter is required"))
			return
		}

		customer, err := svc.GetByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customerResponse{Customer: customer})
	}
}

// CustomerCreate registers a customer, returning the existing record when the
// email is already known.
func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload customers.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.CreateOrGet(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, customerResponse{Customer: customer})
	}
}
