package server

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (a *API) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if a.db != nil {
			if err := a.db.PingContext(ctx); err != nil {
				a.log.Error("health check failed", "name", "sqlite", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "error"})
				return
			}
		}

		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
