package api

import (
	"encoding/json"
	"net/http"

	"github.com/yourusername/tokengate/metrics"
)

// MetricsHandler serves GET /metrics as a JSON snapshot.
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a MetricsHandler over m.
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.metrics.Snapshot())
}
