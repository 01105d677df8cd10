package repository

import "context"

// Plan es el plan contratado por una cuenta con sus flags de capacidad.
type Plan struct {
	AccountID                 string
	Name                      string
	CanOverrideDocsConnectURL bool
}

// PlanRepository lee planes por cuenta.
type PlanRepository interface {
	// GetByAccount retorna ErrNotFound si la cuenta no tiene plan asignado.
	GetByAccount(ctx context.Context, accountID string) (*Plan, error)
}
