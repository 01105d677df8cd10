package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica una violación de unicidad u otra constraint.
	ErrConflict = errors.New("conflict")

	// ErrRetryable indica un fallo transitorio (serialización, deadlock,
	// timeout de la transacción). El cliente puede reintentar.
	ErrRetryable = errors.New("retryable storage failure")

	// ErrInvalidInput indica datos de entrada inválidos para el repositorio.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTxDone indica uso de un Tx ya confirmado o revertido.
	ErrTxDone = errors.New("transaction already closed")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRetryable verifica si el error es ErrRetryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
