package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dbMundada/nango/internal/domain/repository"
)

type sessionRepo struct {
	q querier
}

const sessionColumns = `id, account_id, environment_id, end_user_id, end_user,
	allowed_integrations, integrations_config_defaults, overrides, operation_id, created_at`

func (r *sessionRepo) Create(ctx context.Context, in repository.CreateConnectSessionInput) (*repository.ConnectSession, error) {
	defaults, err := marshalNullable(in.IntegrationsConfigDefaults)
	if err != nil {
		return nil, fmt.Errorf("pg: encode integrations_config_defaults: %w", err)
	}
	overrides, err := marshalNullable(in.Overrides)
	if err != nil {
		return nil, fmt.Errorf("pg: encode overrides: %w", err)
	}

	const query = `
		INSERT INTO connect_sessions (
			id, account_id, environment_id, end_user, allowed_integrations,
			integrations_config_defaults, overrides, operation_id
		) VALUES ($1, $2, $3, $4::jsonb, $5, $6::jsonb, $7::jsonb, $8)
		RETURNING ` + sessionColumns

	row := r.q.QueryRow(ctx, query,
		uuid.NewString(),
		in.AccountID,
		in.EnvironmentID,
		rawOrNull(in.EndUser),
		repository.NormalizeAllowedIntegrations(in.AllowedIntegrations),
		defaults,
		overrides,
		in.OperationID,
	)
	s, err := scanSession(row)
	if err != nil {
		return nil, mapError("create connect session", err)
	}
	return s, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, environmentID, id string) (*repository.ConnectSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	row := r.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM connect_sessions WHERE id = $1 AND environment_id = $2`, id, environmentID)
	s, err := scanSession(row)
	if err != nil {
		return nil, mapError("get connect session", err)
	}
	return s, nil
}

func (r *sessionRepo) ListByEnvironment(ctx context.Context, environmentID string) ([]repository.ConnectSession, error) {
	rows, err := r.q.Query(ctx, `SELECT `+sessionColumns+` FROM connect_sessions WHERE environment_id = $1 ORDER BY created_at DESC`, environmentID)
	if err != nil {
		return nil, mapError("list connect sessions", err)
	}
	defer rows.Close()

	out := make([]repository.ConnectSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, mapError("scan connect session", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list connect sessions", err)
	}
	return out, nil
}

func scanSession(row pgx.Row) (*repository.ConnectSession, error) {
	var (
		s                       repository.ConnectSession
		endUser, defaults, ovrd []byte
		createdAt               time.Time
	)
	if err := row.Scan(
		&s.ID, &s.AccountID, &s.EnvironmentID, &s.EndUserID, &endUser,
		&s.AllowedIntegrations, &defaults, &ovrd, &s.OperationID, &createdAt,
	); err != nil {
		return nil, err
	}
	if len(endUser) > 0 {
		s.EndUser = json.RawMessage(endUser)
	}
	if len(defaults) > 0 {
		if err := json.Unmarshal(defaults, &s.IntegrationsConfigDefaults); err != nil {
			return nil, fmt.Errorf("decode integrations_config_defaults: %w", err)
		}
	}
	if len(ovrd) > 0 {
		if err := json.Unmarshal(ovrd, &s.Overrides); err != nil {
			return nil, fmt.Errorf("decode overrides: %w", err)
		}
	}
	s.AllowedIntegrations = repository.NormalizeAllowedIntegrations(s.AllowedIntegrations)
	s.CreatedAt = createdAt.UTC()
	return &s, nil
}

// marshalNullable serializa v a JSON; un map nil va como NULL.
func marshalNullable[M ~map[string]V, V any](m M) (*string, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func rawOrNull(b json.RawMessage) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}
