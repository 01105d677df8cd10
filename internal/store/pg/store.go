// Package pg implementa repository.Store sobre PostgreSQL con pgx.
//
// Las transacciones corren en READ COMMITTED; las integraciones se leen
// FOR SHARE dentro del Tx para que un borrado concurrente se serialice
// contra la emisión de la sesión.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbMundada/nango/internal/domain/repository"
)

// Config de conexión.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// querier es lo común entre *pgxpool.Pool y pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store es el adapter PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// Open crea el pool y verifica la conexión.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New envuelve un pool existente.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Pool expone el pool (métricas, migraciones).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) ConnectSessions() repository.ConnectSessionRepository {
	return &sessionRepo{q: s.pool}
}

func (s *Store) Credentials() repository.CredentialRepository {
	return &credentialRepo{q: s.pool}
}

func (s *Store) Integrations() repository.IntegrationRepository {
	return &integrationRepo{q: s.pool}
}

func (s *Store) Plans() repository.PlanRepository {
	return &planRepo{q: s.pool}
}

// InTx implementa repository.TxManager.
func (s *Store) InTx(ctx context.Context, opts repository.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin", err)
	}
	// El rollback usa un contexto sin deadline: si ctx venció igual hay
	// que liberar la conexión.
	rollback := func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if opts.Timeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.Timeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			rollback()
			return mapError("set statement_timeout", err)
		}
	}

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		rollback()
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		rollback()
		return mapError("commit", err)
	}
	return nil
}

// pgTx expone los repos ligados a la transacción.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Integrations() repository.IntegrationReader {
	return &integrationRepo{q: t.tx, lock: true}
}

func (t *pgTx) ConnectSessions() repository.ConnectSessionWriter {
	return &sessionRepo{q: t.tx}
}

func (t *pgTx) Credentials() repository.CredentialWriter {
	return &credentialRepo{q: t.tx}
}

func (t *pgTx) Operations() repository.OperationRepository {
	return &operationRepo{q: t.tx}
}
