package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbMundada/nango/internal/domain/repository"
	tokens "github.com/dbMundada/nango/internal/security/token"
	"github.com/dbMundada/nango/internal/store/memory"
)

func issueOne(t *testing.T, store *memory.Store, iss *Issuer) (string, *Metadata) {
	t.Helper()
	var (
		secret string
		meta   *Metadata
	)
	err := store.InTx(context.Background(), repository.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		secret, meta, err = iss.Issue(ctx, tx, IssueInput{
			DisplayName:   "Connect session",
			AccountID:     "acc-1",
			EnvironmentID: "env-1",
			EntityType:    repository.EntityTypeConnectSession,
			EntityID:      "sess-1",
			TTL:           DefaultTTL,
		})
		return err
	})
	require.NoError(t, err)
	return secret, meta
}

func TestIssue_PersistsOnlyVerifier(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	hasher, err := tokens.NewHasher("master-key")
	require.NoError(t, err)

	store := memory.New()
	iss := NewIssuer(hasher, WithClock(func() time.Time { return now }))
	secret, meta := issueOne(t, store, iss)

	assert.True(t, strings.HasPrefix(secret, tokens.ConnectSessionPrefix))
	assert.Equal(t, now.Add(30*time.Minute), meta.ExpiresAt)

	creds, err := store.Credentials().ListByEntity(context.Background(), repository.EntityTypeConnectSession, "sess-1")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.NotEqual(t, secret, creds[0].Hash)
	assert.NotContains(t, creds[0].Hash, secret)
	assert.Equal(t, hasher.Hash(secret), creds[0].Hash)
	assert.Equal(t, meta.ID, creds[0].ID)
}

func TestIssue_GeneratorFailure(t *testing.T) {
	store := memory.New()
	boom := errors.New("entropy exhausted")
	iss := NewIssuer(nil, WithGenerator(func(string, int) (string, error) { return "", boom }))

	err := store.InTx(context.Background(), repository.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		_, _, err := iss.Issue(ctx, tx, IssueInput{EntityType: repository.EntityTypeConnectSession, EntityID: "s"})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssuance)
	assert.ErrorIs(t, err, boom)
}

func TestIssue_DuplicateVerifierIsConflict(t *testing.T) {
	store := memory.New()
	fixed := func(p string, _ int) (string, error) { return p + "fixed", nil }
	iss := NewIssuer(nil, WithGenerator(fixed))

	issueOne(t, store, iss)

	err := store.InTx(context.Background(), repository.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		_, _, err := iss.Issue(ctx, tx, IssueInput{EntityType: repository.EntityTypeConnectSession, EntityID: "sess-2"})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssuance)
	assert.True(t, repository.IsConflict(err))
}

func TestVerify(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	store := memory.New()
	iss := NewIssuer(nil, WithClock(func() time.Time { return clock }))
	secret, _ := issueOne(t, store, iss)

	cred, err := iss.Verify(context.Background(), store.Credentials(), repository.EntityTypeConnectSession, secret)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", cred.EntityID)

	_, err = iss.Verify(context.Background(), store.Credentials(), repository.EntityTypeConnectSession, secret+"x")
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = iss.Verify(context.Background(), store.Credentials(), "other_entity", secret)
	assert.ErrorIs(t, err, ErrUnknownToken)

	clock = now.Add(DefaultTTL)
	_, err = iss.Verify(context.Background(), store.Credentials(), repository.EntityTypeConnectSession, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
