package pg

import (
	"context"

	"github.com/dbMundada/nango/internal/domain/repository"
)

type planRepo struct {
	q querier
}

func (r *planRepo) GetByAccount(ctx context.Context, accountID string) (*repository.Plan, error) {
	var p repository.Plan
	err := r.q.QueryRow(ctx,
		`SELECT account_id, name, can_override_docs_connect_url FROM plans WHERE account_id = $1`,
		accountID,
	).Scan(&p.AccountID, &p.Name, &p.CanOverrideDocsConnectURL)
	if err != nil {
		return nil, mapError("get plan", err)
	}
	return &p, nil
}
