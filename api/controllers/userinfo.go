package controllers

import (
	"net/http"

	"github.com/oskaz/oskaz-api/api/middleware"
	"github.com/oskaz/oskaz-api/api/responses"
	pkgerrors "github.com/oskaz/oskaz-api/pkg/errors"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

// UserInfo surfaces the profile fields from the verified session token.
func UserInfo(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		info := claims.UserInfo()
		if info.Email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token carries no email"))
			return
		}

		responses.WriteSuccess(w, info)
	}
}
