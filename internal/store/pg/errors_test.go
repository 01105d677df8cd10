package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dbMundada/nango/internal/domain/repository"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.True(t, repository.IsNotFound(mapError("op", pgx.ErrNoRows)))

	tests := []struct {
		code string
		want error
	}{
		{"23505", repository.ErrConflict},
		{"23503", repository.ErrInvalidInput},
		{"40001", repository.ErrRetryable},
		{"40P01", repository.ErrRetryable},
		{"57014", repository.ErrRetryable},
	}
	for _, tt := range tests {
		err := mapError("insert", &pgconn.PgError{Code: tt.code, Message: "boom"})
		assert.ErrorIs(t, err, tt.want, tt.code)
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr), "conserva el error original")
	}

	assert.True(t, repository.IsRetryable(mapError("q", context.DeadlineExceeded)))

	other := mapError("q", errors.New("connection refused"))
	assert.False(t, repository.IsRetryable(other))
	assert.False(t, repository.IsConflict(other))
}
