package httpapi

import (
	"context"
	"net/http"
	"time"

	"gatehouse.dev/internal/app"
	"gatehouse.dev/internal/obs"
)

// handleHealth is a liveness probe. It answers from process state alone and
// must keep working when the database is down.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": a.cfg.AppName,
	})
}

// handleReady checks that the database answers a ping.
func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, _ *http.Request) {
	assetSource := app.AssetSourceLocal
	if a.cfg.UseCDNAssets() {
		assetSource = app.AssetSourceCDN
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":      a.cfg.AppName,
		"environment":  a.cfg.AppEnv,
		"asset_source": assetSource,
		"build":        obs.BuildInfo(),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
