package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dbMundada/nango/internal/domain/repository"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014" // statement_timeout
)

// mapError traduce errores de pgx a los sentinels de repository,
// conservando el error original en la cadena.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("pg: %s: %w", op, repository.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("pg: %s: %w: %w", op, repository.ErrConflict, err)
		case codeForeignKeyViolation, codeCheckViolation:
			return fmt.Errorf("pg: %s: %w: %w", op, repository.ErrInvalidInput, err)
		case codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
			return fmt.Errorf("pg: %s: %w: %w", op, repository.ErrRetryable, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return fmt.Errorf("pg: %s: %w: %w", op, repository.ErrRetryable, err)
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}
