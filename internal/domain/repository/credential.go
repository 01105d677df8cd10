package repository

import (
	"context"
	"time"
)

// EntityTypeConnectSession es el tag de entidad para credenciales de connect.
const EntityTypeConnectSession = "connect_session"

// Credential representa una credencial bearer persistida. Solo guarda el
// verificador (Hash); el secreto crudo nunca llega al repositorio.
type Credential struct {
	ID            string
	DisplayName   string
	AccountID     string
	EnvironmentID string
	EntityType    string
	EntityID      string
	Hash          string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reporta si la credencial está vencida respecto de now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CreateCredentialInput contiene los datos para crear una credencial.
type CreateCredentialInput struct {
	DisplayName   string
	AccountID     string
	EnvironmentID string
	EntityType    string
	EntityID      string
	Hash          string
	ExpiresAt     time.Time
}

// CredentialWriter escribe credenciales dentro de un Tx.
type CredentialWriter interface {
	// Create inserta la credencial. Un Hash repetido retorna ErrConflict.
	Create(ctx context.Context, input CreateCredentialInput) (*Credential, error)
}

// CredentialRepository define lecturas fuera de transacción.
type CredentialRepository interface {
	// GetByHash busca por verificador. Retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, hash string) (*Credential, error)

	// ListByEntity retorna las credenciales ligadas a una entidad.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Credential, error)
}
