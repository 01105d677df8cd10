package connect

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dbMundada/nango/internal/audit"
	"github.com/dbMundada/nango/internal/observability/logger"
	tokens "github.com/dbMundada/nango/internal/security/token"
	"github.com/dbMundada/nango/internal/util"
)

// Recorder registra métricas de emisión.
type Recorder interface {
	ObserveConnectSession(outcome string, d time.Duration)
}

// Instrumented envuelve un Creator con logs, métricas y un span.
type Instrumented struct {
	next     Creator
	recorder Recorder
	tracer   trace.Tracer
}

// NewInstrumented crea el decorator. recorder y tracer pueden ser nil.
func NewInstrumented(next Creator, recorder Recorder, tracer trace.Tracer) *Instrumented {
	if tracer == nil {
		tracer = otel.Tracer("github.com/dbMundada/nango/internal/connect")
	}
	return &Instrumented{next: next, recorder: recorder, tracer: tracer}
}

var _ Creator = (*Instrumented)(nil)

func (i *Instrumented) Create(ctx context.Context, tenant Tenant, req Request) Result {
	ctx, span := i.tracer.Start(ctx, "connect.CreateSession", trace.WithAttributes(
		attribute.String("nango.account_id", tenant.AccountID),
		attribute.String("nango.environment_id", tenant.EnvironmentID),
		attribute.Int("nango.allowed_integrations", len(req.AllowedIntegrations)),
	))
	defer span.End()

	start := time.Now()
	res := i.next.Create(ctx, tenant, req)
	elapsed := time.Since(start)

	if i.recorder != nil {
		i.recorder.ObserveConnectSession(string(res.State), elapsed)
	}
	span.SetAttributes(
		attribute.String("nango.outcome", string(res.State)),
		attribute.String("nango.reached", string(res.Reached)),
	)

	log := logger.From(ctx).With(
		logger.Component("connect"),
		logger.Outcome(string(res.State)),
		logger.DurationMs(elapsed.Milliseconds()),
	)

	switch res.State {
	case StateCommitted:
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.String("nango.connect_session_id", res.Session.ID))
		log.Info("connect session created",
			logger.SessionID(res.Session.ID),
			logger.OperationID(res.Session.OperationID),
		)
		fields := []zap.Field{
			logger.SessionID(res.Session.ID),
			zap.Time("expires_at", res.Credential.ExpiresAt),
			logger.String("token", util.MaskSecret(res.Secret, tokens.ConnectSessionPrefix)),
		}
		if eu := req.EndUser; eu != nil && eu.Email != nil {
			fields = append(fields, logger.String("end_user_email", util.MaskEmail(*eu.Email)))
		}
		audit.Log(ctx, audit.EventConnectSessionCreated, fields...)
	case StateValidationFailed, StateReferenceNotFound:
		log.Info("connect session rejected", logger.String("kind", string(res.Kind())), logger.Count(len(res.Errors)))
	case StateForbidden:
		log.Warn("connect session forbidden: docs_connect override requires plan capability")
	case StatePersistenceFailed:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, string(res.Kind()))
		log.Error("connect session persistence failed",
			logger.String("kind", string(res.Kind())),
			logger.String("reached", string(res.Reached)),
			logger.Bool("retryable", res.Retryable()),
			logger.Err(res.Err),
		)
	}
	return res
}
