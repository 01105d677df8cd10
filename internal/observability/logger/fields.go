package logger

import (
	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// ─── Tenant / dominio ───

// AccountID identifica la cuenta dueña del environment.
func AccountID(v string) zap.Field { return zap.String("account_id", v) }

// EnvironmentID identifica el environment (tenant efectivo).
func EnvironmentID(v string) zap.Field { return zap.String("environment_id", v) }

// SessionID identifica una connect session.
func SessionID(v string) zap.Field { return zap.String("connect_session_id", v) }

// OperationID identifica el contexto de operación/auditoría.
func OperationID(v string) zap.Field { return zap.String("operation_id", v) }

// Outcome es el estado terminal de una operación (committed, forbidden, ...).
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Layer indica la capa (controller, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// ─── Genéricos ───

func Count(v int) zap.Field             { return zap.Int("count", v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
