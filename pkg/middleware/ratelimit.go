package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// RateLimit applies one token bucket to all API traffic. Health probes are
// never limited. A non-positive limit disables the middleware.
func RateLimit(limit float64, burst int, m *metrics.Metrics) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health/") || limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}
			if m != nil {
				m.HTTPRateLimitedTotal.Inc()
			}
			logger.FromContext(r.Context()).Warn("request rejected", "path", r.URL.Path, "error", apperrors.ErrRateLimited)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(apperrors.HTTPStatusCode(apperrors.ErrRateLimited))
			w.Write([]byte(`{"error":"` + apperrors.ErrRateLimited.Error() + `"}`))
		})
	}
}
