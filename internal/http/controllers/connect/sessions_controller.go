// Package connect contiene los controllers de connect sessions.
package connect

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	cs "github.com/dbMundada/nango/internal/connect"
	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
	dto "github.com/dbMundada/nango/internal/http/dto/connect"
	httperrors "github.com/dbMundada/nango/internal/http/errors"
	"github.com/dbMundada/nango/internal/http/helpers"
	mw "github.com/dbMundada/nango/internal/http/middlewares"
	"github.com/dbMundada/nango/internal/observability/logger"
)

// PlanResolver resuelve el plan de la cuenta antes de la transacción.
type PlanResolver interface {
	ForAccount(ctx context.Context, accountID string) (*repository.Plan, error)
}

// SessionFinder resuelve una sesión a partir de su token.
type SessionFinder interface {
	ByToken(ctx context.Context, token string) (*cs.SessionView, error)
}

// SessionsController maneja /connect/sessions y /connect/session.
type SessionsController struct {
	creator cs.Creator
	plans   PlanResolver
	finder  SessionFinder
	uiURL   string
}

// NewSessionsController crea el controller.
func NewSessionsController(creator cs.Creator, plans PlanResolver, finder SessionFinder, uiURL string) *SessionsController {
	return &SessionsController{creator: creator, plans: plans, finder: finder, uiURL: uiURL}
}

// Create maneja POST /connect/sessions. Requiere WithTenantAuth.
func (c *SessionsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.Create"))

	if q := r.URL.Query(); len(q) > 0 {
		httperrors.WriteError(w, r, httperrors.ErrInvalidQueryParams.WithErrors(queryErrors(q)))
		return
	}

	tenant, ok := mw.GetTenant(ctx)
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}

	if !helpers.IsJSON(r) {
		httperrors.WriteError(w, r, httperrors.ErrInvalidBody.WithErrors([]cs.FieldError{{
			Code:    cs.CodeInvalidType,
			Message: "Expected application/json, received " + r.Header.Get("Content-Type"),
			Path:    []any{},
		}}))
		return
	}
	body := helpers.LimitBody(w, r)
	defer body.Close()

	in, errs := dto.DecodeCreateSession(body)
	if len(errs) > 0 {
		log.Debug("body rejected", logger.Count(len(errs)))
		httperrors.WriteError(w, r, httperrors.ErrInvalidBody.WithErrors(errs))
		return
	}

	plan, err := c.plans.ForAccount(ctx, tenant.AccountID)
	if err != nil {
		writeServerError(w, r, repository.IsRetryable(err), err)
		return
	}

	meta := map[string]any{
		"request_id": mw.GetRequestID(ctx),
		"user_agent": r.UserAgent(),
	}
	res := c.creator.Create(ctx, cs.Tenant{
		AccountID:     tenant.AccountID,
		EnvironmentID: tenant.EnvironmentID,
		Plan:          plan,
	}, in.ToRequest(meta))

	switch res.State {
	case cs.StateCommitted:
		resp, err := cs.Compose(c.uiURL, res.Secret, res.Credential)
		if err != nil {
			writeServerError(w, r, false, err)
			return
		}
		helpers.WriteJSON(w, http.StatusCreated, dto.CreateSessionResponse{Data: resp})

	case cs.StateValidationFailed, cs.StateReferenceNotFound:
		httperrors.WriteError(w, r, httperrors.ErrInvalidBody.WithErrors(res.Errors))

	case cs.StateForbidden:
		httperrors.WriteError(w, r, httperrors.ErrForbidden.WithMessage("You are not allowed to override the docs connect url"))

	default:
		writeServerError(w, r, res.Retryable(), res.Err)
	}
}

// Get maneja GET /connect/session. Se autentica con el token de la sesión.
func (c *SessionsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := mw.BearerToken(r)
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized.WithMessage("Missing Authorization bearer token"))
		return
	}

	view, err := c.finder.ByToken(ctx, token)
	switch {
	case errors.Is(err, credentials.ErrUnknownToken):
		httperrors.WriteError(w, r, httperrors.ErrUnknownToken)
		return
	case errors.Is(err, credentials.ErrTokenExpired):
		httperrors.WriteError(w, r, httperrors.ErrTokenExpired)
		return
	case err != nil:
		writeServerError(w, r, repository.IsRetryable(err), err)
		return
	}

	logger.From(ctx).Debug("connect session resolved",
		logger.Op("SessionsController.Get"),
		logger.SessionID(view.Session.ID),
	)
	helpers.WriteJSON(w, http.StatusOK, dto.NewSessionResponse(view))
}

func writeServerError(w http.ResponseWriter, r *http.Request, retryable bool, cause error) {
	if retryable {
		w.Header().Set("Retry-After", "1")
	}
	httperrors.WriteError(w, r, httperrors.ErrServerError.WithCause(cause))
}

func queryErrors(q map[string][]string) []cs.FieldError {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, "'"+k+"'")
	}
	sort.Strings(keys)
	return []cs.FieldError{{
		Code:    cs.CodeUnrecognizedKeys,
		Message: "Unrecognized key(s) in object: " + strings.Join(keys, ", "),
		Path:    []any{},
	}}
}
