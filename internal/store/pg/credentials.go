package pg

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dbMundada/nango/internal/domain/repository"
)

type credentialRepo struct {
	q querier
}

const credentialColumns = `id, display_name, account_id, environment_id, entity_type, entity_id, hash, expires_at, created_at`

func (r *credentialRepo) Create(ctx context.Context, in repository.CreateCredentialInput) (*repository.Credential, error) {
	const query = `
		INSERT INTO private_keys (id, display_name, account_id, environment_id, entity_type, entity_id, hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + credentialColumns

	c, err := scanCredential(r.q.QueryRow(ctx, query,
		uuid.NewString(),
		in.DisplayName,
		in.AccountID,
		in.EnvironmentID,
		in.EntityType,
		in.EntityID,
		in.Hash,
		in.ExpiresAt.UTC(),
	))
	if err != nil {
		return nil, mapError("create private key", err)
	}
	return c, nil
}

func (r *credentialRepo) GetByHash(ctx context.Context, hash string) (*repository.Credential, error) {
	c, err := scanCredential(r.q.QueryRow(ctx, `SELECT `+credentialColumns+` FROM private_keys WHERE hash = $1`, hash))
	if err != nil {
		return nil, mapError("get private key", err)
	}
	return c, nil
}

func (r *credentialRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]repository.Credential, error) {
	rows, err := r.q.Query(ctx, `SELECT `+credentialColumns+` FROM private_keys WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at`, entityType, entityID)
	if err != nil {
		return nil, mapError("list private keys", err)
	}
	defer rows.Close()

	var out []repository.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, mapError("scan private key", err)
		}
		out = append(out, *c)
	}
	return out, mapError("list private keys", rows.Err())
}

func scanCredential(row pgx.Row) (*repository.Credential, error) {
	var c repository.Credential
	if err := row.Scan(&c.ID, &c.DisplayName, &c.AccountID, &c.EnvironmentID,
		&c.EntityType, &c.EntityID, &c.Hash, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
