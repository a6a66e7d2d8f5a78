package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/payments-service/api/responses"
	"github.com/angelmondragon/payments-service/pkg/config"
	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
	"github.com/angelmondragon/payments-service/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(context.Context) error
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Payments-Env", cfg.App.Env)
		responses.WriteJSON(w, http.StatusOK, healthStatus{Status: "live"})
	}
}

// HealthReady pings every configured dependency. A nil redis pinger means the
// service runs without Redis and is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger Pinger, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Payments-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed error
		for name, p := range map[string]Pinger{"database": dbPinger, "redis": redisPinger} {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				continue
			}
			checks[name] = "up"
		}
		if failed != nil {
			responses.LogError(r.Context(), logg, failed)
			responses.WriteJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "unavailable", Checks: checks})
			return
		}
		responses.WriteJSON(w, http.StatusOK, healthStatus{Status: "ready", Checks: checks})
	}
}
