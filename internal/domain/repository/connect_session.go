package repository

import (
	"context"
	"encoding/json"
	"time"
)

// IntegrationConfigDefaults son los valores por defecto que el flujo de
// autorización aplica a una integración.
type IntegrationConfigDefaults struct {
	UserScopes          *string           `json:"user_scopes,omitempty"`
	AuthorizationParams map[string]string `json:"authorization_params,omitempty"`
	ConnectionConfig    map[string]any    `json:"connection_config,omitempty"`
}

// IntegrationOverride sobreescribe la presentación de una integración.
type IntegrationOverride struct {
	DocsConnect *string `json:"docs_connect,omitempty"`
}

// ConnectSession representa una sesión de conexión persistida.
type ConnectSession struct {
	ID            string
	AccountID     string
	EnvironmentID string

	// EndUserID lo adjunta un flujo posterior; nunca se setea al crear.
	EndUserID *string
	// EndUser es el snapshot del end user tal como lo armó el mapper.
	EndUser json.RawMessage

	// AllowedIntegrations nil significa "todas las integraciones".
	AllowedIntegrations        []string
	IntegrationsConfigDefaults map[string]IntegrationConfigDefaults
	Overrides                  map[string]IntegrationOverride

	OperationID string
	CreatedAt   time.Time
}

// Unrestricted indica si la sesión permite todas las integraciones.
func (s *ConnectSession) Unrestricted() bool {
	return s.AllowedIntegrations == nil
}

// CreateConnectSessionInput contiene los datos para crear una sesión.
type CreateConnectSessionInput struct {
	AccountID                  string
	EnvironmentID              string
	EndUser                    json.RawMessage
	AllowedIntegrations        []string
	IntegrationsConfigDefaults map[string]IntegrationConfigDefaults
	Overrides                  map[string]IntegrationOverride
	OperationID                string
}

// ConnectSessionWriter escribe sesiones dentro de un Tx.
type ConnectSessionWriter interface {
	// Create inserta exactamente una fila. Una lista AllowedIntegrations
	// vacía se guarda como NULL (sin restricción).
	Create(ctx context.Context, input CreateConnectSessionInput) (*ConnectSession, error)
}

// ConnectSessionRepository define lecturas fuera de transacción.
type ConnectSessionRepository interface {
	// GetByID retorna ErrNotFound si la sesión no existe en el environment.
	GetByID(ctx context.Context, environmentID, id string) (*ConnectSession, error)

	// ListByEnvironment retorna las sesiones del environment, más nuevas primero.
	ListByEnvironment(ctx context.Context, environmentID string) ([]ConnectSession, error)
}

// NormalizeAllowedIntegrations aplica el centinela: vacío => nil.
func NormalizeAllowedIntegrations(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
