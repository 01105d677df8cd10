package middlewares

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dbMundada/nango/internal/http/errors"
	"github.com/dbMundada/nango/internal/observability/logger"
	"github.com/dbMundada/nango/internal/rate"
)

// RateLimiter es lo que necesita WithRateLimit.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (rate.Result, error)
}

// WithTenantRateLimit limita por account+environment. Va después de
// WithTenantAuth. Si el limiter falla se deja pasar el request.
func WithTenantRateLimit(limiter RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := GetTenant(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), t.AccountID+":"+t.EnvironmentID)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Layer("middleware"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				errors.WriteError(w, r, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
