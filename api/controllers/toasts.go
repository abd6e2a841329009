package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oskaz/oskaz-api/api/middleware"
	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/api/validators"
	"github.com/oskaz/oskaz-api/internal/toast"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/types"
)

type toastsResponse struct {
	Toasts []toast.Toast `json:"toasts"`
}

func toastSession(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "cart session missing")
	}
	return sessionID, nil
}

// ToastsList returns the session's visible toasts.
func ToastsList(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "toast center unavailable"))
			return
		}

		sessionID, err := toastSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toastsResponse{Toasts: center.List(sessionID)})
	}
}

type pushToastRequest struct {
	Level   string `json:"level" validate:"required,oneof=info success warning error"`
	Message string `json:"message" validate:"required"`
}

// ToastPush appends a toast to the session's queue.
func ToastPush(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "toast center unavailable"))
			return
		}

		sessionID, err := toastSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pushToastRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := center.Push(sessionID, toast.Level(payload.Level), payload.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "push toast"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// ToastDismiss cancels a toast before its timer fires.
func ToastDismiss(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if center == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "toast center unavailable"))
			return
		}

		sessionID, err := toastSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !center.Dismiss(sessionID, chi.URLParam(r, "toastID")) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "toast not found"))
			return
		}

		responses.WriteSuccess(w, types.Message{Message: "toast dismissed"})
	}
}
