package pg

import (
	"context"

	"github.com/google/uuid"

	"github.com/dbMundada/nango/internal/domain/repository"
)

type integrationRepo struct {
	q querier
	// lock agrega FOR SHARE (solo dentro de un Tx).
	lock bool
}

func (r *integrationRepo) ListByEnvironment(ctx context.Context, environmentID string) ([]repository.Integration, error) {
	query := `
		SELECT id, environment_id, unique_key, provider, created_at
		FROM integrations
		WHERE environment_id = $1 AND deleted_at IS NULL
		ORDER BY unique_key`
	if r.lock {
		query += ` FOR SHARE`
	}

	rows, err := r.q.Query(ctx, query, environmentID)
	if err != nil {
		return nil, mapError("list integrations", err)
	}
	defer rows.Close()

	var out []repository.Integration
	for rows.Next() {
		var it repository.Integration
		if err := rows.Scan(&it.ID, &it.EnvironmentID, &it.UniqueKey, &it.Provider, &it.CreatedAt); err != nil {
			return nil, mapError("scan integration", err)
		}
		out = append(out, it)
	}
	return out, mapError("list integrations", rows.Err())
}

func (r *integrationRepo) Create(ctx context.Context, in repository.CreateIntegrationInput) (*repository.Integration, error) {
	var it repository.Integration
	err := r.q.QueryRow(ctx, `
		INSERT INTO integrations (id, environment_id, unique_key, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, environment_id, unique_key, provider, created_at`,
		uuid.NewString(), in.EnvironmentID, in.UniqueKey, in.Provider,
	).Scan(&it.ID, &it.EnvironmentID, &it.UniqueKey, &it.Provider, &it.CreatedAt)
	if err != nil {
		return nil, mapError("create integration", err)
	}
	return &it, nil
}
