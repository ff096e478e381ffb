package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/campusmarket-client/api/responses"
	"github.com/angelmondragon/campusmarket-client/pkg/config"
	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/angelmondragon/campusmarket-client/pkg/kv"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
)

const envHeader = "X-CampusMarket-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the durable store when it is backed by a server.
func HealthReady(cfg *config.Config, logg *logger.Logger, storage kv.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if pinger, ok := storage.(kv.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
