package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/launchboard-backend/api/responses"
	"github.com/angelmondragon/launchboard-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/types"
)

const (
	envHeader    = "X-Launchboard-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is any dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, types.HealthStatus{Status: "live"})
	}
}

// HealthReady pings every named dependency and fails on the first error.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name}))
				return
			}
			checks[name] = "ok"
		}
		responses.WriteSuccess(w, types.HealthStatus{Status: "ready", Checks: checks})
	}
}
