package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dbMundada/nango/internal/domain/repository"
)

type operationRepo struct {
	q querier
}

func (r *operationRepo) Create(ctx context.Context, in repository.CreateOperationInput) (*repository.Operation, error) {
	var meta *string
	if in.Meta != nil {
		b, err := json.Marshal(in.Meta)
		if err != nil {
			return nil, fmt.Errorf("pg: encode operation meta: %w", err)
		}
		s := string(b)
		meta = &s
	}

	op := repository.Operation{
		AccountID:     in.AccountID,
		EnvironmentID: in.EnvironmentID,
		Type:          in.Type,
		Action:        in.Action,
		Meta:          in.Meta,
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO operations (id, account_id, environment_id, type, action, meta)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id, created_at`,
		uuid.NewString(), in.AccountID, in.EnvironmentID, in.Type, in.Action, meta,
	).Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		return nil, mapError("create operation", err)
	}
	return &op, nil
}
