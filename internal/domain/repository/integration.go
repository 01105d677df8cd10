package repository

import (
	"context"
	"time"
)

// Integration es una integración configurada en un environment.
// UniqueKey es único dentro del environment.
type Integration struct {
	ID            string
	EnvironmentID string
	UniqueKey     string
	Provider      string
	CreatedAt     time.Time
}

// CreateIntegrationInput contiene los datos para registrar una integración.
type CreateIntegrationInput struct {
	EnvironmentID string
	UniqueKey     string
	Provider      string
}

// IntegrationReader es la vista del configuration store dentro de un Tx.
type IntegrationReader interface {
	// ListByEnvironment retorna las integraciones del environment ordenadas
	// por unique_key. Las filas quedan bloqueadas en modo compartido hasta
	// el fin de la transacción (cuando el driver lo soporta).
	ListByEnvironment(ctx context.Context, environmentID string) ([]Integration, error)
}

// IntegrationRepository administra integraciones fuera de transacción.
type IntegrationRepository interface {
	IntegrationReader

	// Create registra una integración. Clave duplicada => ErrConflict.
	Create(ctx context.Context, input CreateIntegrationInput) (*Integration, error)
}

// IntegrationKeySet construye el set de claves conocidas.
func IntegrationKeySet(integrations []Integration) map[string]struct{} {
	out := make(map[string]struct{}, len(integrations))
	for _, it := range integrations {
		out[it.UniqueKey] = struct{}{}
	}
	return out
}
