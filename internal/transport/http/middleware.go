package http

import (
	"net/http"

	"racing-telemetry/ingestion/internal/auth"
)

// AuthMiddleware guards the admin endpoints with the X-API-Key header.
type AuthMiddleware struct {
	auth *auth.Authenticator
}

func NewAuthMiddleware(a *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// Wrap returns next unchanged when no admin keys are configured, so a local
// run without ADMIN_API_KEYS exposes /metrics and /destinations openly.
// Otherwise a missing or unknown key gets a 401 with a JSON error body.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	if !m.auth.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing X-API-Key header"}`))
			return
		}

		if !m.auth.Validate(apiKey) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid API key"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
