package http

import (
	"encoding/json"
	"net/http"
	"time"

	"racing-telemetry/ingestion/internal/auth"
	"racing-telemetry/ingestion/internal/metrics"
)

// PoolStatus is the view of the producer pool exposed to operators.
type PoolStatus interface {
	Destinations() []string
}

// IngestStatus reports queued packets not yet dispatched.
type IngestStatus interface {
	Backlog() int
}

// NewServer serves /healthz openly and /metrics and /destinations behind the API key check.
func NewServer(addr string, a *auth.Authenticator, pool PoolStatus, ingest IngestStatus) *http.Server {
	protected := NewAuthMiddleware(a)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"producers": len(pool.Destinations()),
			"backlog":   ingest.Backlog(),
		})
	})
	mux.Handle("GET /metrics", protected.Wrap(http.HandlerFunc(metrics.HandleMetrics)))
	mux.Handle("GET /destinations", protected.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"destinations": pool.Destinations(),
		})
	})))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
