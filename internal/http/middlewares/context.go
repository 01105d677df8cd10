package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxTenantKey    ctxKey = "tenant"
)

// Tenant es la identidad autenticada por WithTenantAuth.
type Tenant struct {
	AccountID     string
	EnvironmentID string
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithTenant inyecta el tenant en el contexto (tests y middlewares).
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, ctxTenantKey, t)
}

// GetRequestID obtiene el request ID del contexto. Vacío si no hay.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetTenant obtiene el tenant autenticado.
func GetTenant(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(ctxTenantKey).(Tenant)
	return t, ok
}
