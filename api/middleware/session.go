package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

// CartSession resolves the cart session cookie, minting one on first visit,
// and seeds the request context with the session id.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.SessionCookie
	if cookieName == "" {
		cookieName = "oskaz_cart_sid"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				sessionID = sanitizeSessionID(cookie.Value)
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.SessionTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sanitizeSessionID accepts only UUID-shaped cookie values so arbitrary
// client input never reaches snapshot slot names.
func sanitizeSessionID(value string) string {
	value = strings.TrimSpace(value)
	if _, err := uuid.Parse(value); err != nil {
		return ""
	}
	return value
}
