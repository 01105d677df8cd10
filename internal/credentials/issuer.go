// Package credentials emite y verifica las credenciales bearer ligadas a
// una entidad (private keys). Solo se persiste el verificador del secreto.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbMundada/nango/internal/domain/repository"
	tokens "github.com/dbMundada/nango/internal/security/token"
)

// DefaultTTL es la vida de un token de connect session.
const DefaultTTL = 30 * time.Minute

var (
	// ErrIssuance indica que no se pudo generar o persistir la credencial.
	ErrIssuance = errors.New("credential issuance failed")
	// ErrUnknownToken indica que el secreto no corresponde a ninguna credencial.
	ErrUnknownToken = errors.New("unknown token")
	// ErrTokenExpired indica que la credencial existe pero venció.
	ErrTokenExpired = errors.New("token expired")
)

// IssueInput describe la credencial a emitir.
type IssueInput struct {
	DisplayName   string
	AccountID     string
	EnvironmentID string
	EntityType    string
	EntityID      string
	TTL           time.Duration
}

// Metadata es lo que el llamador puede ver de una credencial emitida.
type Metadata struct {
	ID        string
	ExpiresAt time.Time
}

// Issuer genera secretos y persiste sus verificadores.
type Issuer struct {
	hasher *tokens.Hasher
	prefix string
	now    func() time.Time
	gen    func(prefix string, n int) (string, error)
}

// Option configura un Issuer.
type Option func(*Issuer)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithPrefix cambia el prefijo de los secretos.
func WithPrefix(p string) Option {
	return func(i *Issuer) { i.prefix = p }
}

// WithGenerator reemplaza el generador de secretos (tests).
func WithGenerator(gen func(prefix string, n int) (string, error)) Option {
	return func(i *Issuer) { i.gen = gen }
}

// NewIssuer crea un Issuer. hasher nil usa SHA-256 plano.
func NewIssuer(hasher *tokens.Hasher, opts ...Option) *Issuer {
	i := &Issuer{
		hasher: hasher,
		prefix: tokens.ConnectSessionPrefix,
		now:    time.Now,
		gen:    tokens.GenerateSecret,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Issue genera un secreto, persiste su verificador en tx y retorna el
// secreto crudo una única vez junto con la metadata.
func (i *Issuer) Issue(ctx context.Context, tx repository.Tx, in IssueInput) (string, *Metadata, error) {
	ttl := in.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	secret, err := i.gen(i.prefix, tokens.DefaultSecretBytes)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrIssuance, err)
	}

	expiresAt := i.now().UTC().Add(ttl)
	cred, err := tx.Credentials().Create(ctx, repository.CreateCredentialInput{
		DisplayName:   in.DisplayName,
		AccountID:     in.AccountID,
		EnvironmentID: in.EnvironmentID,
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		Hash:          i.hasher.Hash(secret),
		ExpiresAt:     expiresAt,
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrIssuance, err)
	}

	// La expiración que ve el llamador es la calculada acá, no la releída.
	return secret, &Metadata{ID: cred.ID, ExpiresAt: expiresAt}, nil
}

// Verify resuelve un secreto a su credencial vigente.
func (i *Issuer) Verify(ctx context.Context, repo repository.CredentialRepository, entityType, secret string) (*repository.Credential, error) {
	if secret == "" {
		return nil, ErrUnknownToken
	}
	cred, err := repo.GetByHash(ctx, i.hasher.Hash(secret))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownToken
		}
		return nil, err
	}
	if cred.EntityType != entityType {
		return nil, ErrUnknownToken
	}
	if cred.Expired(i.now().UTC()) {
		return nil, ErrTokenExpired
	}
	return cred, nil
}
