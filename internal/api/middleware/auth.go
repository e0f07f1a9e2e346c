package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// HeaderCronToken carries the shared secret; the "token" query parameter is accepted as well.
const HeaderCronToken = "X-Cron-Token"

type forbiddenResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TokenAuth rejects requests whose token does not match expected with 403.
// An empty expected token rejects everything.
func TokenAuth(expected string, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(HeaderCronToken)
			if provided == "" {
				provided = r.URL.Query().Get("token")
			}
			if !ValidToken(expected, provided) {
				logger.Warnw("Rejected request with invalid token", "request_id", RequestID(r.Context()), "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(forbiddenResponse{
					Status:  "forbidden",
					Message: "Invalid or missing token. Please check the service configuration.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidToken compares in constant time. Empty values never match.
func ValidToken(expected, provided string) bool {
	if expected == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
