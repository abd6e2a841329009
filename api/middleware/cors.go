package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/oskaz/oskaz-api/pkg/config"
)

// CORS returns middleware that applies the configured origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "svix-id", "svix-timestamp", "svix-signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
