package connect

import (
	"errors"

	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
)

// State es el estado alcanzado por una emisión.
type State string

const (
	StateReceived          State = "received"
	StateValidated         State = "validated"
	StateReferencesChecked State = "references_checked"
	StatePermissionChecked State = "permission_checked"
	StateSessionWritten    State = "session_written"
	StateCredentialWritten State = "credential_written"
	StateCommitted         State = "committed"

	StateValidationFailed  State = "validation_failed"
	StateReferenceNotFound State = "reference_not_found"
	StateForbidden         State = "forbidden"
	StatePersistenceFailed State = "persistence_failed"
)

// Result es el resultado discriminado de Coordinator.Create. Según State
// solo algunos campos tienen sentido:
//   - StateCommitted: Session, Secret, Credential.
//   - StateValidationFailed, StateReferenceNotFound: Errors.
//   - StateForbidden: nada.
//   - StatePersistenceFailed: Err (solo para logs, nunca al cliente).
type Result struct {
	State State
	// Reached es el último estado lineal alcanzado antes de terminar.
	Reached State

	Errors []FieldError

	Session    *repository.ConnectSession
	Secret     string
	Credential *credentials.Metadata

	Err error
}

// OK reporta si la sesión quedó confirmada.
func (r Result) OK() bool { return r.State == StateCommitted }

// Retryable reporta si el fallo es transitorio (timeout, serialización).
func (r Result) Retryable() bool {
	return r.State == StatePersistenceFailed && repository.IsRetryable(r.Err)
}

// Kind clasifica el fallo. Vacío si la sesión se confirmó.
func (r Result) Kind() Kind {
	switch r.State {
	case StateValidationFailed:
		return KindSchemaValidation
	case StateReferenceNotFound:
		return KindReferenceNotFound
	case StateForbidden:
		return KindPermissionDenied
	case StatePersistenceFailed:
		if errors.Is(r.Err, credentials.ErrIssuance) {
			return KindIssuance
		}
		return KindPersistence
	}
	return ""
}
