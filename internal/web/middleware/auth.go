package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/jobtracker/internal/config"
	"github.com/JonMunkholm/jobtracker/internal/logging"
)

// APIKeyHeader carries the API key.
const APIKeyHeader = "X-API-Key"

// authError matches the API's error body so clients handle one shape.
type authError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// APIKeyAuth rejects requests whose X-API-Key is not in cfg.APIKeys. When
// RequireAPIKey is false every request passes. CORS preflight requests are
// never checked because browsers do not send custom headers on them.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key != "" && isValidAPIKey(key, cfg.APIKeys) {
				next.ServeHTTP(w, r)
				return
			}

			status, reason := http.StatusUnauthorized, "missing api key"
			if key != "" {
				status, reason = http.StatusForbidden, "invalid api key"
			}
			logging.FromContext(r.Context()).Warn("auth: "+reason,
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(authError{
				Error:   "Invalid or missing API key",
				Message: "Invalid or missing API key",
				Action:  "Provide a valid X-API-Key header",
				Code:    "AUTH001",
			})
		})
	}
}

// isValidAPIKey compares key against every configured key in constant
// time, so timing does not reveal which key matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
