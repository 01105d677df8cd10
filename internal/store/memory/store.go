// Package memory implementa repository.Store en memoria.
//
// Las escrituras hechas dentro de InTx quedan en un buffer propio de la
// transacción y se aplican en bloque al confirmar; un rollback las descarta.
// Pensado para desarrollo local (storage.driver=memory) y tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbMundada/nango/internal/domain/repository"
)

// Store es el almacenamiento en memoria.
type Store struct {
	mu sync.RWMutex

	sessions     map[string]repository.ConnectSession
	credentials  map[string]repository.Credential
	credByHash   map[string]string
	integrations map[string][]repository.Integration
	operations   map[string]repository.Operation
	plans        map[string]repository.Plan

	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New crea un Store vacío.
func New() *Store {
	return &Store{
		sessions:     make(map[string]repository.ConnectSession),
		credentials:  make(map[string]repository.Credential),
		credByHash:   make(map[string]string),
		integrations: make(map[string][]repository.Integration),
		operations:   make(map[string]repository.Operation),
		plans:        make(map[string]repository.Plan),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj usado para created_at (tests).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SeedPlan asigna un plan a una cuenta.
func (s *Store) SeedPlan(p repository.Plan) {
	s.mu.Lock()
	s.plans[p.AccountID] = p
	s.mu.Unlock()
}

// OperationCount retorna cuántas operaciones se confirmaron (tests).
func (s *Store) OperationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.operations)
}

func (s *Store) ConnectSessions() repository.ConnectSessionRepository {
	return sessionReader{s}
}

func (s *Store) Credentials() repository.CredentialRepository {
	return credentialReader{s}
}

func (s *Store) Integrations() repository.IntegrationRepository {
	return integrationRepo{s}
}

func (s *Store) Plans() repository.PlanRepository {
	return planReader{s}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// InTx implementa repository.TxManager.
func (s *Store) InTx(ctx context.Context, opts repository.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tx := &memTx{store: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		tx.rollback()
		return fmt.Errorf("memory: tx deadline: %w: %w", repository.ErrRetryable, ctxErr)
	}
	return tx.commit()
}

// memTx acumula escrituras hasta commit.
type memTx struct {
	store *Store
	done  bool

	sessions    []repository.ConnectSession
	credentials []repository.Credential
	operations  []repository.Operation
}

func (t *memTx) Integrations() repository.IntegrationReader {
	return integrationRepo{t.store}
}

func (t *memTx) ConnectSessions() repository.ConnectSessionWriter {
	return txSessionWriter{t}
}

func (t *memTx) Credentials() repository.CredentialWriter {
	return txCredentialWriter{t}
}

func (t *memTx) Operations() repository.OperationRepository {
	return txOperationWriter{t}
}

func (t *memTx) rollback() {
	t.done = true
	t.sessions, t.credentials, t.operations = nil, nil, nil
}

func (t *memTx) commit() error {
	if t.done {
		return repository.ErrTxDone
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Revalidar unicidad contra lo confirmado por otras transacciones.
	for _, c := range t.credentials {
		if _, dup := s.credByHash[c.Hash]; dup {
			t.done = true
			return fmt.Errorf("memory: commit credential: %w", repository.ErrConflict)
		}
	}
	for _, op := range t.operations {
		s.operations[op.ID] = op
	}
	for _, cs := range t.sessions {
		s.sessions[cs.ID] = cs
	}
	for _, c := range t.credentials {
		s.credentials[c.ID] = c
		s.credByHash[c.Hash] = c.ID
	}
	t.done = true
	return nil
}

func (t *memTx) check() error {
	if t.done {
		return repository.ErrTxDone
	}
	return nil
}

// ─── Escritura dentro de Tx ───

type txSessionWriter struct{ tx *memTx }

func (w txSessionWriter) Create(ctx context.Context, in repository.CreateConnectSessionInput) (*repository.ConnectSession, error) {
	if err := w.tx.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: create connect session: %w: %w", repository.ErrRetryable, err)
	}
	if in.AccountID == "" || in.EnvironmentID == "" {
		return nil, fmt.Errorf("memory: create connect session: %w", repository.ErrInvalidInput)
	}
	cs := repository.ConnectSession{
		ID:                         uuid.NewString(),
		AccountID:                  in.AccountID,
		EnvironmentID:              in.EnvironmentID,
		EndUser:                    cloneRaw(in.EndUser),
		AllowedIntegrations:        repository.NormalizeAllowedIntegrations(in.AllowedIntegrations),
		IntegrationsConfigDefaults: in.IntegrationsConfigDefaults,
		Overrides:                  in.Overrides,
		OperationID:                in.OperationID,
		CreatedAt:                  w.tx.store.clock(),
	}
	w.tx.sessions = append(w.tx.sessions, cs)
	out := cs
	return &out, nil
}

type txCredentialWriter struct{ tx *memTx }

func (w txCredentialWriter) Create(ctx context.Context, in repository.CreateCredentialInput) (*repository.Credential, error) {
	if err := w.tx.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: create credential: %w: %w", repository.ErrRetryable, err)
	}
	if in.Hash == "" || in.EntityID == "" {
		return nil, fmt.Errorf("memory: create credential: %w", repository.ErrInvalidInput)
	}
	s := w.tx.store
	s.mu.RLock()
	_, dup := s.credByHash[in.Hash]
	s.mu.RUnlock()
	for _, c := range w.tx.credentials {
		if c.Hash == in.Hash {
			dup = true
		}
	}
	if dup {
		return nil, fmt.Errorf("memory: create credential: %w", repository.ErrConflict)
	}
	c := repository.Credential{
		ID:            uuid.NewString(),
		DisplayName:   in.DisplayName,
		AccountID:     in.AccountID,
		EnvironmentID: in.EnvironmentID,
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		Hash:          in.Hash,
		ExpiresAt:     in.ExpiresAt.UTC(),
		CreatedAt:     s.clock(),
	}
	w.tx.credentials = append(w.tx.credentials, c)
	out := c
	return &out, nil
}

type txOperationWriter struct{ tx *memTx }

func (w txOperationWriter) Create(ctx context.Context, in repository.CreateOperationInput) (*repository.Operation, error) {
	if err := w.tx.check(); err != nil {
		return nil, err
	}
	op := repository.Operation{
		ID:            uuid.NewString(),
		AccountID:     in.AccountID,
		EnvironmentID: in.EnvironmentID,
		Type:          in.Type,
		Action:        in.Action,
		Meta:          in.Meta,
		CreatedAt:     w.tx.store.clock(),
	}
	w.tx.operations = append(w.tx.operations, op)
	out := op
	return &out, nil
}

// ─── Lecturas ───

type sessionReader struct{ s *Store }

func (r sessionReader) GetByID(_ context.Context, environmentID, id string) (*repository.ConnectSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cs, ok := r.s.sessions[id]
	if !ok || cs.EnvironmentID != environmentID {
		return nil, repository.ErrNotFound
	}
	return &cs, nil
}

func (r sessionReader) ListByEnvironment(_ context.Context, environmentID string) ([]repository.ConnectSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]repository.ConnectSession, 0)
	for _, cs := range r.s.sessions {
		if cs.EnvironmentID == environmentID {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type credentialReader struct{ s *Store }

func (r credentialReader) GetByHash(_ context.Context, hash string) (*repository.Credential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.credByHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := r.s.credentials[id]
	return &c, nil
}

func (r credentialReader) ListByEntity(_ context.Context, entityType, entityID string) ([]repository.Credential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.Credential
	for _, c := range r.s.credentials {
		if c.EntityType == entityType && c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out, nil
}

type integrationRepo struct{ s *Store }

func (r integrationRepo) ListByEnvironment(ctx context.Context, environmentID string) ([]repository.Integration, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: list integrations: %w: %w", repository.ErrRetryable, err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.integrations[environmentID]
	out := make([]repository.Integration, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueKey < out[j].UniqueKey })
	return out, nil
}

func (r integrationRepo) Create(_ context.Context, in repository.CreateIntegrationInput) (*repository.Integration, error) {
	if in.EnvironmentID == "" || in.UniqueKey == "" {
		return nil, fmt.Errorf("memory: create integration: %w", repository.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.integrations[in.EnvironmentID] {
		if it.UniqueKey == in.UniqueKey {
			return nil, fmt.Errorf("memory: create integration: %w", repository.ErrConflict)
		}
	}
	it := repository.Integration{
		ID:            uuid.NewString(),
		EnvironmentID: in.EnvironmentID,
		UniqueKey:     in.UniqueKey,
		Provider:      in.Provider,
		CreatedAt:     r.s.now(),
	}
	r.s.integrations[in.EnvironmentID] = append(r.s.integrations[in.EnvironmentID], it)
	return &it, nil
}

type planReader struct{ s *Store }

func (r planReader) GetByAccount(_ context.Context, accountID string) (*repository.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.plans[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func cloneRaw(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
