// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dbMundada/nango/internal/http/helpers"
	"github.com/dbMundada/nango/internal/observability/logger"
)

// Check es un chequeo de dependencia (store, cache).
type Check func(ctx context.Context) error

// Status es el estado de un componente.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response es el body de /readyz.
type Response struct {
	Status     string            `json:"status"`
	Components map[string]Status `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthController crea el controller. Cada check tiene timeout propio.
func NewHealthController(checks map[string]Check) *HealthController {
	return &HealthController{checks: checks, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz (liveness, sin dependencias).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := Response{
		Status:     "ready",
		Components: make(map[string]Status, len(c.checks)),
		Timestamp:  time.Now().UTC(),
	}

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.checks[name](cctx)
		cancel()
		if err != nil {
			resp.Status = "unavailable"
			resp.Components[name] = Status{Status: "error", Message: "unavailable"}
			log.Error(name+" unavailable", logger.Err(err))
			continue
		}
		resp.Components[name] = Status{Status: "ok"}
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
