package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
)

// SessionView es lo que ve el flujo de autorización al presentar el token.
type SessionView struct {
	Session   *repository.ConnectSession
	ExpiresAt time.Time
}

// TokenVerifier resuelve un secreto a su credencial vigente.
type TokenVerifier interface {
	Verify(ctx context.Context, repo repository.CredentialRepository, entityType, secret string) (*repository.Credential, error)
}

// Lookup resuelve connect sessions a partir del token emitido.
type Lookup struct {
	store    repository.Store
	verifier TokenVerifier
}

// NewLookup crea un Lookup.
func NewLookup(store repository.Store, verifier TokenVerifier) *Lookup {
	return &Lookup{store: store, verifier: verifier}
}

// ByToken retorna credentials.ErrUnknownToken o credentials.ErrTokenExpired
// si el token no sirve.
func (l *Lookup) ByToken(ctx context.Context, token string) (*SessionView, error) {
	cred, err := l.verifier.Verify(ctx, l.store.Credentials(), repository.EntityTypeConnectSession, token)
	if err != nil {
		return nil, err
	}
	session, err := l.store.ConnectSessions().GetByID(ctx, cred.EnvironmentID, cred.EntityID)
	if err != nil {
		if repository.IsNotFound(err) {
			// Credencial huérfana: se trata igual que un token desconocido.
			return nil, credentials.ErrUnknownToken
		}
		return nil, fmt.Errorf("connect: load session: %w", err)
	}
	return &SessionView{Session: session, ExpiresAt: cred.ExpiresAt}, nil
}
