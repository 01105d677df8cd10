package repository

import (
	"context"
	"time"
)

// Tx expone los repositorios ligados a una transacción abierta.
// Todo lo que se lee o escribe a través de un Tx se confirma o se
// revierte en bloque.
type Tx interface {
	Integrations() IntegrationReader
	ConnectSessions() ConnectSessionWriter
	Credentials() CredentialWriter
	Operations() OperationRepository
}

// TxOptions configura la transacción.
type TxOptions struct {
	// Timeout acota la duración total de la transacción. 0 = sin límite propio.
	Timeout time.Duration
}

// TxManager abre transacciones.
type TxManager interface {
	// InTx ejecuta fn dentro de una transacción. Si fn retorna error (o hace
	// panic) la transacción se revierte y ninguna escritura sobrevive; si no,
	// se confirma. Un timeout o un conflicto de serialización se reporta
	// envuelto en ErrRetryable.
	InTx(ctx context.Context, opts TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// Store agrupa el acceso a datos del servicio.
type Store interface {
	TxManager

	ConnectSessions() ConnectSessionRepository
	Credentials() CredentialRepository
	Integrations() IntegrationRepository
	Plans() PlanRepository

	Ping(ctx context.Context) error
	Close() error
}
