package middlewares

import (
	"net/http"
	"strings"

	"github.com/dbMundada/nango/internal/http/errors"
	"github.com/dbMundada/nango/internal/jwt"
	"github.com/dbMundada/nango/internal/observability/logger"
)

// TenantParser valida el bearer del tenant.
type TenantParser interface {
	Parse(token string) (*jwt.TenantClaims, error)
}

// WithTenantAuth exige Authorization: Bearer <jwt de tenant> y deja el
// tenant en el contexto (y en el logger del request).
func WithTenantAuth(parser TenantParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				errors.WriteError(w, r, errors.ErrUnauthorized.WithMessage("Missing Authorization bearer token"))
				return
			}
			claims, err := parser.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("tenant auth rejected", logger.Layer("middleware"), logger.Err(err))
				errors.WriteError(w, r, errors.ErrUnauthorized)
				return
			}

			t := Tenant{AccountID: claims.AccountID, EnvironmentID: claims.EnvironmentID}
			ctx := WithTenant(r.Context(), t)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.AccountID(t.AccountID),
				logger.EnvironmentID(t.EnvironmentID),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extrae el token de Authorization: Bearer.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
