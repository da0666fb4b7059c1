package handlers

import (
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
)

// GetMetrics returns the service metrics snapshot.
// GET /api/v1/metrics
func (h *Handlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.metrics == nil {
		http.Error(w, "Metrics not configured", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.metrics.GetSnapshot()); err != nil {
		slog.Error("Failed to encode metrics response", "error", err)
	}
}
