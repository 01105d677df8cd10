package repository

import (
	"context"
	"time"
)

// Operation es el contexto de auditoría de una acción. Se crea antes de la
// entidad que lo referencia.
type Operation struct {
	ID            string
	AccountID     string
	EnvironmentID string
	Type          string
	Action        string
	Meta          map[string]any
	CreatedAt     time.Time
}

// CreateOperationInput contiene los datos para crear una operación.
type CreateOperationInput struct {
	AccountID     string
	EnvironmentID string
	Type          string
	Action        string
	Meta          map[string]any
}

// OperationRepository persiste operaciones dentro de un Tx.
type OperationRepository interface {
	Create(ctx context.Context, input CreateOperationInput) (*Operation, error)
}
