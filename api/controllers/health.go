package controllers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/higujral/zcollabz/api/responses"
	"github.com/higujral/zcollabz/pkg/config"
	"github.com/higujral/zcollabz/pkg/logger"
)

// Pinger is satisfied by the database, object store and Redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names a dependency probed by /health/ready.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ZCollabz-Env", cfg.App.Env)
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ZCollabz-Env", cfg.App.Env)

		var errs error
		failed := map[string]string{}
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", check.Name, err))
				failed[check.Name] = "unavailable"
			}
		}
		if errs != nil {
			if logg != nil {
				logg.Error(r.Context(), "health.not_ready", errs)
			}
			responses.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"checks": failed,
			})
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
