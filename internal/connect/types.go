package connect

import (
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/enduser"
)

// Entry es un par clave/valor de un objeto JSON.
type Entry[T any] struct {
	Key   string
	Value T
}

// Entries es un objeto JSON con el orden de claves del request.
// nil significa "ausente".
type Entries[T any] []Entry[T]

// Keys retorna las claves en orden.
func (e Entries[T]) Keys() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e))
	for i, kv := range e {
		out[i] = kv.Key
	}
	return out
}

// Map convierte a map. nil se mantiene nil.
func (e Entries[T]) Map() map[string]T {
	if e == nil {
		return nil
	}
	out := make(map[string]T, len(e))
	for _, kv := range e {
		out[kv.Key] = kv.Value
	}
	return out
}

// Tenant es el dueño de la sesión, ya autenticado.
type Tenant struct {
	AccountID     string
	EnvironmentID string
	// Plan resuelto fuera de la transacción; nil = sin plan.
	Plan *repository.Plan
}

// Request es el input ya validado en forma.
type Request struct {
	EndUser                    *enduser.EndUser
	AllowedIntegrations        []string
	IntegrationsConfigDefaults Entries[repository.IntegrationConfigDefaults]
	Overrides                  Entries[repository.IntegrationOverride]

	// Meta va a la operación de auditoría (request id, user agent).
	Meta map[string]any
}

func (r *Request) referencesIntegrations() bool {
	return r.AllowedIntegrations != nil || r.IntegrationsConfigDefaults != nil || r.Overrides != nil
}
