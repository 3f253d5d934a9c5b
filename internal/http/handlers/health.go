package handlers

import (
	"net/http"
)

// Health handles GET /v1/healthz.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ProviderHealth handles GET /v1/health/providers. Both providers are
// probed live on every call; nothing is cached.
func (a *App) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Orchestrator.HealthStatus(r.Context()))
}
