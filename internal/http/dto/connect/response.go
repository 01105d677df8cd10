package connect

import (
	"encoding/json"

	cs "github.com/dbMundada/nango/internal/connect"
	"github.com/dbMundada/nango/internal/domain/repository"
)

// CreateSessionResponse es el 201 de POST /connect/sessions.
type CreateSessionResponse struct {
	Data cs.Response `json:"data"`
}

// SessionData es la vista de una sesión para el flujo de autorización.
// Nunca incluye el secreto.
type SessionData struct {
	AllowedIntegrations        []string                                        `json:"allowed_integrations"`
	IntegrationsConfigDefaults map[string]repository.IntegrationConfigDefaults `json:"integrations_config_defaults"`
	Overrides                  map[string]repository.IntegrationOverride       `json:"overrides"`
	EndUser                    json.RawMessage                                 `json:"end_user"`
	CreatedAt                  string                                          `json:"created_at"`
	ExpiresAt                  string                                          `json:"expires_at"`
}

// SessionResponse es el 200 de GET /connect/session.
type SessionResponse struct {
	Data SessionData `json:"data"`
}

// NewSessionResponse arma la vista. Los campos ausentes salen como null.
func NewSessionResponse(v *cs.SessionView) SessionResponse {
	s := v.Session
	eu := s.EndUser
	if len(eu) == 0 {
		eu = json.RawMessage("null")
	}
	return SessionResponse{Data: SessionData{
		AllowedIntegrations:        s.AllowedIntegrations,
		IntegrationsConfigDefaults: s.IntegrationsConfigDefaults,
		Overrides:                  s.Overrides,
		EndUser:                    eu,
		CreatedAt:                  cs.FormatExpiresAt(s.CreatedAt),
		ExpiresAt:                  cs.FormatExpiresAt(v.ExpiresAt),
	}}
}
