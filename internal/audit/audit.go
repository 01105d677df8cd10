// Package audit emite eventos de auditoría estructurados.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dbMundada/nango/internal/observability/logger"
)

// Event nombres de eventos conocidos.
const (
	EventConnectSessionCreated = "connect_session.created"
	EventOperationCreated      = "operation.created"
)

// Log escribe un evento de auditoría con el logger del request.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("event", event),
		zap.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
		logger.Component("audit"),
	}
	logger.From(ctx).Info("audit", append(base, fields...)...)
}
