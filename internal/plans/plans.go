// Package plans resuelve el plan de una cuenta y sus capacidades.
package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dbMundada/nango/internal/cache"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/observability/logger"
)

// DefaultTTL es cuánto se cachea un plan.
const DefaultTTL = 5 * time.Minute

// CanOverrideDocLink reporta si el plan permite sobreescribir docs_connect.
// Es una lectura pura del plan ya resuelto.
func CanOverrideDocLink(p *repository.Plan) bool {
	return p != nil && p.CanOverrideDocsConnectURL
}

// Unrestricted es el plan implícito fuera de cloud.
func Unrestricted(accountID string) *repository.Plan {
	return &repository.Plan{AccountID: accountID, Name: "unrestricted", CanOverrideDocsConnectURL: true}
}

// Service resuelve planes: cache -> repositorio, con cargas deduplicadas.
type Service struct {
	flavor Flavor
	repo   repository.PlanRepository
	cache  cache.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewService crea el servicio. c puede ser nil (sin cache).
func NewService(flavor Flavor, repo repository.PlanRepository, c cache.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{flavor: flavor, repo: repo, cache: c, ttl: ttl}
}

// ForAccount retorna el plan de la cuenta. Fuera de cloud retorna el plan
// sin restricciones; en cloud, una cuenta sin plan retorna nil.
func (s *Service) ForAccount(ctx context.Context, accountID string) (*repository.Plan, error) {
	if !s.flavor.UsesPlans() {
		return Unrestricted(accountID), nil
	}

	if p, ok := s.fromCache(ctx, accountID); ok {
		return p, nil
	}

	// La carga compartida no hereda la cancelación de quien la disparó;
	// cada llamador espera con su propio ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(accountID, func() (any, error) {
		p, err := s.repo.GetByAccount(loadCtx, accountID)
		if err != nil {
			if repository.IsNotFound(err) {
				return (*repository.Plan)(nil), nil
			}
			return nil, fmt.Errorf("plans: load %s: %w", accountID, err)
		}
		s.toCache(loadCtx, accountID, p)
		return p, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		v = r.Val
	}
	return v.(*repository.Plan), nil
}

// Invalidate borra el plan cacheado de la cuenta.
func (s *Service) Invalidate(ctx context.Context, accountID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cacheKey(accountID))
}

func cacheKey(accountID string) string { return "plan:" + accountID }

func (s *Service) fromCache(ctx context.Context, accountID string) (*repository.Plan, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(accountID))
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("plan cache get failed", logger.Component("plans"), logger.AccountID(accountID), logger.Err(err))
		}
		return nil, false
	}
	var p repository.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (s *Service) toCache(ctx context.Context, accountID string, p *repository.Plan) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(accountID), string(b), s.ttl); err != nil {
		logger.From(ctx).Warn("plan cache set failed", logger.Component("plans"), logger.AccountID(accountID), logger.Err(err))
	}
}
