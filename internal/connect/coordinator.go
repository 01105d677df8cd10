package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/operations"
)

// DefaultTxTimeout acota la transacción de emisión.
const DefaultTxTimeout = 10 * time.Second

// DisplayName de las credenciales de connect session.
const credentialDisplayName = "Connect session"

// OperationProvider crea el contexto de operación dentro de la transacción.
type OperationProvider interface {
	Create(ctx context.Context, tx repository.Tx, d operations.Descriptor, meta operations.Meta, s operations.Scope) (string, error)
}

// CredentialIssuer emite la credencial ligada a la sesión.
type CredentialIssuer interface {
	Issue(ctx context.Context, tx repository.Tx, in credentials.IssueInput) (string, *credentials.Metadata, error)
}

// Creator es lo que consume la capa HTTP.
type Creator interface {
	Create(ctx context.Context, tenant Tenant, req Request) Result
}

// Coordinator orquesta la emisión en una transacción.
type Coordinator struct {
	tx                 repository.TxManager
	issuer             CredentialIssuer
	operations         OperationProvider
	canOverrideDocLink func(*repository.Plan) bool

	ttl       time.Duration
	txTimeout time.Duration
}

// CoordinatorConfig agrupa las dependencias del Coordinator.
type CoordinatorConfig struct {
	TxManager          repository.TxManager
	Issuer             CredentialIssuer
	Operations         OperationProvider
	CanOverrideDocLink func(*repository.Plan) bool
	TTL                time.Duration
	TxTimeout          time.Duration
}

// NewCoordinator crea un Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		tx:                 cfg.TxManager,
		issuer:             cfg.Issuer,
		operations:         cfg.Operations,
		canOverrideDocLink: cfg.CanOverrideDocLink,
		ttl:                cfg.TTL,
		txTimeout:          cfg.TxTimeout,
	}
	if c.ttl <= 0 {
		c.ttl = credentials.DefaultTTL
	}
	if c.txTimeout <= 0 {
		c.txTimeout = DefaultTxTimeout
	}
	if c.canOverrideDocLink == nil {
		c.canOverrideDocLink = func(*repository.Plan) bool { return false }
	}
	return c
}

var _ Creator = (*Coordinator)(nil)

// errAbort revierte la transacción sin que sea un fallo de storage.
var errAbort = errors.New("connect: aborted")

// Create ejecuta el flujo completo. No reintenta: un conflicto o timeout
// vuelve como StatePersistenceFailed con Retryable() true.
func (c *Coordinator) Create(ctx context.Context, tenant Tenant, req Request) Result {
	if errs := Validate(&req); len(errs) > 0 {
		return Result{State: StateValidationFailed, Reached: StateReceived, Errors: errs}
	}

	var res Result
	err := c.tx.InTx(ctx, repository.TxOptions{Timeout: c.txTimeout}, func(ctx context.Context, tx repository.Tx) error {
		res = c.run(ctx, tx, tenant, &req)
		if res.State != StateCredentialWritten {
			return errAbort
		}
		return nil
	})

	switch {
	case err == nil:
		res.State = StateCommitted
		res.Reached = StateCommitted
		return res
	case errors.Is(err, errAbort):
		return res
	default:
		// Falló el commit (o el tx manager) después de escribir todo.
		reached := res.Reached
		if reached == "" {
			reached = StateValidated
		}
		return Result{State: StatePersistenceFailed, Reached: reached, Err: err}
	}
}

// run es el cuerpo de la transacción: validado el request, lee el estado
// del tenant, chequea y escribe. Retorna StateCredentialWritten si todo
// quedó listo para confirmar.
func (c *Coordinator) run(ctx context.Context, tx repository.Tx, tenant Tenant, req *Request) Result {
	if req.referencesIntegrations() {
		integrations, err := tx.Integrations().ListByEnvironment(ctx, tenant.EnvironmentID)
		if err != nil {
			return failed(StateValidated, fmt.Errorf("list integrations: %w", err))
		}
		known := repository.IntegrationKeySet(integrations)

		if errs := CheckReferences(ListRefs(req.AllowedIntegrations), known, "allowed_integrations"); len(errs) > 0 {
			return Result{State: StateReferenceNotFound, Reached: StateValidated, Errors: errs}
		}
		errs := CheckReferences(EntryRefs(req.IntegrationsConfigDefaults), known, "integrations_config_defaults")
		errs = append(errs, CheckReferences(EntryRefs(req.Overrides), known, "overrides")...)
		if len(errs) > 0 {
			return Result{State: StateReferenceNotFound, Reached: StateValidated, Errors: errs}
		}
	}

	if GateOverrides(req.Overrides, c.canOverrideDocLink(tenant.Plan)) == Denied {
		return Result{State: StateForbidden, Reached: StateReferencesChecked}
	}

	scope := operations.Scope{AccountID: tenant.AccountID, EnvironmentID: tenant.EnvironmentID}
	opID, err := c.operations.Create(ctx, tx, operations.CreateConnectSession, req.Meta, scope)
	if err != nil {
		return failed(StatePermissionChecked, err)
	}

	var endUser json.RawMessage
	if req.EndUser != nil {
		if endUser, err = json.Marshal(req.EndUser); err != nil {
			return failed(StatePermissionChecked, fmt.Errorf("encode end user: %w", err))
		}
	}

	session, err := tx.ConnectSessions().Create(ctx, repository.CreateConnectSessionInput{
		AccountID:                  tenant.AccountID,
		EnvironmentID:              tenant.EnvironmentID,
		EndUser:                    endUser,
		AllowedIntegrations:        repository.NormalizeAllowedIntegrations(req.AllowedIntegrations),
		IntegrationsConfigDefaults: req.IntegrationsConfigDefaults.Map(),
		Overrides:                  req.Overrides.Map(),
		OperationID:                opID,
	})
	if err != nil {
		return failed(StatePermissionChecked, fmt.Errorf("create connect session: %w", err))
	}

	secret, meta, err := c.issuer.Issue(ctx, tx, credentials.IssueInput{
		DisplayName:   credentialDisplayName,
		AccountID:     tenant.AccountID,
		EnvironmentID: tenant.EnvironmentID,
		EntityType:    repository.EntityTypeConnectSession,
		EntityID:      session.ID,
		TTL:           c.ttl,
	})
	if err != nil {
		return failed(StateSessionWritten, err)
	}

	return Result{
		State:      StateCredentialWritten,
		Reached:    StateCredentialWritten,
		Session:    session,
		Secret:     secret,
		Credential: meta,
	}
}

func failed(reached State, err error) Result {
	return Result{State: StatePersistenceFailed, Reached: reached, Err: err}
}
