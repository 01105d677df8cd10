// Package operations crea el contexto de operación (auditoría) que
// referencian las entidades creadas por una acción.
package operations

import (
	"context"
	"fmt"

	"github.com/dbMundada/nango/internal/audit"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/observability/logger"
)

// Descriptor identifica el tipo de operación.
type Descriptor struct {
	Type   string
	Action string
}

// CreateConnectSession es la operación de emisión de una connect session.
var CreateConnectSession = Descriptor{Type: "auth", Action: "create_connection_session"}

// Meta es metadata libre asociada a la operación (request id, user agent...).
type Meta map[string]any

// Scope es el tenant dueño de la operación.
type Scope struct {
	AccountID     string
	EnvironmentID string
}

// Provider persiste operaciones dentro de la transacción del llamador.
type Provider struct{}

// NewProvider crea un Provider.
func NewProvider() *Provider { return &Provider{} }

// Create inserta la operación en tx y retorna su id. El evento de
// auditoría se emite al crear; si la transacción se revierte la fila no
// sobrevive pero el log sí queda.
func (p *Provider) Create(ctx context.Context, tx repository.Tx, d Descriptor, meta Meta, s Scope) (string, error) {
	op, err := tx.Operations().Create(ctx, repository.CreateOperationInput{
		AccountID:     s.AccountID,
		EnvironmentID: s.EnvironmentID,
		Type:          d.Type,
		Action:        d.Action,
		Meta:          meta,
	})
	if err != nil {
		return "", fmt.Errorf("operations: create %s/%s: %w", d.Type, d.Action, err)
	}

	audit.Log(ctx, audit.EventOperationCreated,
		logger.OperationID(op.ID),
		logger.String("type", d.Type),
		logger.String("action", d.Action),
	)
	return op.ID, nil
}
