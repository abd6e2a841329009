package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/oskaz/oskaz-api/api/responses"
	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/logger"
)

// Pinger verifies one dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Oskaz-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports per-check outcomes.
// Any failing check flips the response to 503 without hiding the others.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Oskaz-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := "ready"
		results := make(map[string]string, len(checks))
		for name, pinger := range checks {
			if pinger == nil {
				results[name] = "skipped"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				results[name] = "unavailable"
				status = "degraded"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "check", name), "readiness check failed")
				}
				continue
			}
			results[name] = "ok"
		}

		payload := map[string]any{"status": status, "checks": results}
		if status != "ready" {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
