package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/enduser"
	"github.com/dbMundada/nango/internal/operations"
	"github.com/dbMundada/nango/internal/store/memory"
)

const (
	testAccount = "acc-1"
	testEnv     = "env-1"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	issuer *credentials.Issuer
	coord  *Coordinator
	tenant Tenant
}

func newFixture(t *testing.T, integrationKeys ...string) *fixture {
	t.Helper()
	store := memory.New()
	for _, k := range integrationKeys {
		_, err := store.Integrations().Create(context.Background(), repository.CreateIntegrationInput{
			EnvironmentID: testEnv, UniqueKey: k, Provider: k,
		})
		require.NoError(t, err)
	}
	issuer := credentials.NewIssuer(nil, credentials.WithClock(func() time.Time { return testNow }))
	f := &fixture{
		store:  store,
		issuer: issuer,
		tenant: Tenant{AccountID: testAccount, EnvironmentID: testEnv},
	}
	f.coord = f.coordinator(store)
	return f
}

func (f *fixture) coordinator(tx repository.TxManager) *Coordinator {
	return NewCoordinator(CoordinatorConfig{
		TxManager:  tx,
		Issuer:     f.issuer,
		Operations: operations.NewProvider(),
		CanOverrideDocLink: func(p *repository.Plan) bool {
			return p != nil && p.CanOverrideDocsConnectURL
		},
	})
}

func (f *fixture) sessions(t *testing.T) []repository.ConnectSession {
	t.Helper()
	out, err := f.store.ConnectSessions().ListByEnvironment(context.Background(), testEnv)
	require.NoError(t, err)
	return out
}

// ─── Fault injection ───

type failingCredentials struct{ err error }

func (f failingCredentials) Create(context.Context, repository.CreateCredentialInput) (*repository.Credential, error) {
	return nil, f.err
}

type faultyTx struct {
	repository.Tx
	credErr error
}

func (t faultyTx) Credentials() repository.CredentialWriter { return failingCredentials{t.credErr} }

type faultyManager struct {
	inner   repository.TxManager
	credErr error
}

func (m faultyManager) InTx(ctx context.Context, opts repository.TxOptions, fn func(context.Context, repository.Tx) error) error {
	return m.inner.InTx(ctx, opts, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, credErr: m.credErr})
	})
}

type commitFailure struct {
	inner repository.TxManager
	err   error
}

func (m commitFailure) InTx(ctx context.Context, opts repository.TxOptions, fn func(context.Context, repository.Tx) error) error {
	if err := m.inner.InTx(ctx, opts, func(ctx context.Context, tx repository.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return m.err
	}); err != nil {
		return err
	}
	return nil
}

// ─── Tests ───

func TestCreate_UnrestrictedWhenNoCollections(t *testing.T) {
	f := newFixture(t)
	email := "a@b.com"
	res := f.coord.Create(context.Background(), f.tenant, Request{
		EndUser: &enduser.EndUser{ID: "u-1", Email: &email},
	})
	require.True(t, res.OK(), "state=%s err=%v", res.State, res.Err)
	assert.Equal(t, StateCommitted, res.State)
	assert.True(t, res.Session.Unrestricted())
	assert.Empty(t, res.Errors)
	assert.JSONEq(t, `{"id":"u-1","email":"a@b.com"}`, string(res.Session.EndUser))

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].AllowedIntegrations)
	assert.NotEmpty(t, sessions[0].OperationID)
	assert.Equal(t, 1, f.store.OperationCount())
}

func TestCreate_EmptyAllowListIsUnrestricted(t *testing.T) {
	f := newFixture(t, "gh")
	res := f.coord.Create(context.Background(), f.tenant, Request{AllowedIntegrations: []string{}})
	require.True(t, res.OK())
	assert.True(t, res.Session.Unrestricted())
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t, "gh", "slack")
	res := f.coord.Create(context.Background(), f.tenant, Request{AllowedIntegrations: []string{"gh"}})
	require.True(t, res.OK())

	assert.Equal(t, []string{"gh"}, res.Session.AllowedIntegrations)
	assert.Equal(t, testNow.Add(30*time.Minute), res.Credential.ExpiresAt)

	creds, err := f.store.Credentials().ListByEntity(context.Background(), repository.EntityTypeConnectSession, res.Session.ID)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.NotEqual(t, res.Secret, creds[0].Hash)
	assert.Equal(t, testAccount, creds[0].AccountID)
}

func TestCreate_UnknownAllowedIntegration(t *testing.T) {
	f := newFixture(t, "gh", "slack")
	res := f.coord.Create(context.Background(), f.tenant, Request{AllowedIntegrations: []string{"nope"}})

	assert.Equal(t, StateReferenceNotFound, res.State)
	assert.Equal(t, KindReferenceNotFound, res.Kind())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, []any{"allowed_integrations", 0}, res.Errors[0].Path)
	assert.Empty(t, f.sessions(t))
	assert.Equal(t, 0, f.store.OperationCount())
}

func TestCreate_AllowListFailsFastBeforeMaps(t *testing.T) {
	f := newFixture(t, "gh")
	res := f.coord.Create(context.Background(), f.tenant, Request{
		AllowedIntegrations:        []string{"nope"},
		IntegrationsConfigDefaults: Entries[repository.IntegrationConfigDefaults]{{Key: "other"}},
	})
	require.Equal(t, StateReferenceNotFound, res.State)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "allowed_integrations", res.Errors[0].Path[0])
}

func TestCreate_DefaultsAndOverridesErrorsConcatenatedInOrder(t *testing.T) {
	f := newFixture(t, "gh")
	res := f.coord.Create(context.Background(), f.tenant, Request{
		IntegrationsConfigDefaults: Entries[repository.IntegrationConfigDefaults]{{Key: "a"}, {Key: "z"}},
		Overrides:                  Entries[repository.IntegrationOverride]{{Key: "gh"}, {Key: "m"}},
	})
	require.Equal(t, StateReferenceNotFound, res.State)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, []any{"integrations_config_defaults", "a"}, res.Errors[0].Path)
	assert.Equal(t, []any{"integrations_config_defaults", "z"}, res.Errors[1].Path)
	assert.Equal(t, []any{"overrides", "m"}, res.Errors[2].Path)
}

func TestCreate_DocLinkOverrideWithoutCapabilityIsForbidden(t *testing.T) {
	f := newFixture(t, "gh")
	link := "https://docs.example.com/gh"
	req := Request{
		AllowedIntegrations: []string{"gh"},
		Overrides:           Entries[repository.IntegrationOverride]{{Key: "gh", Value: repository.IntegrationOverride{DocsConnect: &link}}},
	}

	res := f.coord.Create(context.Background(), f.tenant, req)
	assert.Equal(t, StateForbidden, res.State)
	assert.Empty(t, f.sessions(t))

	f.tenant.Plan = &repository.Plan{AccountID: testAccount, CanOverrideDocsConnectURL: true}
	res = f.coord.Create(context.Background(), f.tenant, req)
	require.True(t, res.OK())
	require.NotNil(t, res.Session.Overrides["gh"].DocsConnect)
	assert.Equal(t, link, *res.Session.Overrides["gh"].DocsConnect)
}

func TestCreate_ReferenceErrorsTakePrecedenceOverPermission(t *testing.T) {
	f := newFixture(t, "gh")
	link := "https://docs.example.com"
	res := f.coord.Create(context.Background(), f.tenant, Request{
		Overrides: Entries[repository.IntegrationOverride]{{Key: "nope", Value: repository.IntegrationOverride{DocsConnect: &link}}},
	})
	assert.Equal(t, StateReferenceNotFound, res.State)
}

func TestCreate_ValidationFailed(t *testing.T) {
	f := newFixture(t, "gh")
	res := f.coord.Create(context.Background(), f.tenant, Request{AllowedIntegrations: []string{"gh", ""}})
	assert.Equal(t, StateValidationFailed, res.State)
	assert.Equal(t, KindSchemaValidation, res.Kind())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, []any{"allowed_integrations", 1}, res.Errors[0].Path)
}

func TestCreate_CredentialFailureLeavesNoSession(t *testing.T) {
	f := newFixture(t, "gh")
	coord := f.coordinator(faultyManager{inner: f.store, credErr: errors.New("connection reset")})

	res := coord.Create(context.Background(), f.tenant, Request{AllowedIntegrations: []string{"gh"}})
	assert.Equal(t, StatePersistenceFailed, res.State)
	assert.Equal(t, StateSessionWritten, res.Reached)
	assert.Equal(t, KindIssuance, res.Kind())
	assert.False(t, res.Retryable())
	assert.Empty(t, res.Secret)

	assert.Empty(t, f.sessions(t))
	assert.Equal(t, 0, f.store.OperationCount())
}

func TestCreate_RetryableConflict(t *testing.T) {
	f := newFixture(t)
	coord := f.coordinator(faultyManager{inner: f.store, credErr: repository.ErrRetryable})

	res := coord.Create(context.Background(), f.tenant, Request{})
	assert.Equal(t, StatePersistenceFailed, res.State)
	assert.True(t, res.Retryable())
}

func TestCreate_CommitFailure(t *testing.T) {
	f := newFixture(t)
	coord := f.coordinator(commitFailure{inner: f.store, err: errors.New("commit: broken pipe")})

	res := coord.Create(context.Background(), f.tenant, Request{})
	assert.Equal(t, StatePersistenceFailed, res.State)
	assert.Equal(t, KindPersistence, res.Kind())
	assert.Nil(t, res.Session)
	assert.Empty(t, f.sessions(t))
}

func TestCreate_NotIdempotent(t *testing.T) {
	f := newFixture(t, "gh")
	req := Request{AllowedIntegrations: []string{"gh"}}
	a := f.coord.Create(context.Background(), f.tenant, req)
	b := f.coord.Create(context.Background(), f.tenant, req)
	require.True(t, a.OK())
	require.True(t, b.OK())
	assert.NotEqual(t, a.Session.ID, b.Session.ID)
	assert.NotEqual(t, a.Secret, b.Secret)
	assert.Len(t, f.sessions(t), 2)
}

func TestCreate_ExpiredContextIsRetryable(t *testing.T) {
	f := newFixture(t, "gh")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.coord.Create(ctx, f.tenant, Request{AllowedIntegrations: []string{"gh"}})
	assert.Equal(t, StatePersistenceFailed, res.State)
	assert.True(t, res.Retryable())
	assert.Empty(t, f.sessions(t))
}
