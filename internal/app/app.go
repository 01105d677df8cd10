// Package app arma el contenedor de dependencias del servicio a partir
// de la configuración.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dbMundada/nango/internal/cache"
	"github.com/dbMundada/nango/internal/config"
	"github.com/dbMundada/nango/internal/connect"
	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
	connectctrl "github.com/dbMundada/nango/internal/http/controllers/connect"
	healthctrl "github.com/dbMundada/nango/internal/http/controllers/health"
	mw "github.com/dbMundada/nango/internal/http/middlewares"
	"github.com/dbMundada/nango/internal/http/router"
	"github.com/dbMundada/nango/internal/jwt"
	"github.com/dbMundada/nango/internal/metrics"
	"github.com/dbMundada/nango/internal/observability/logger"
	"github.com/dbMundada/nango/internal/observability/tracing"
	"github.com/dbMundada/nango/internal/operations"
	"github.com/dbMundada/nango/internal/plans"
	"github.com/dbMundada/nango/internal/rate"
	tokens "github.com/dbMundada/nango/internal/security/token"
	"github.com/dbMundada/nango/internal/store/memory"
	"github.com/dbMundada/nango/internal/store/pg"
)

// Container agrupa las dependencias ya construidas.
type Container struct {
	Config  *config.Config
	Store   repository.Store
	Cache   cache.Client
	Plans   *plans.Service
	Metrics *metrics.Metrics
	Tokens  *jwt.Codec
	Creator connect.Creator
	Lookup  *connect.Lookup
	Handler http.Handler

	telemetry *tracing.Telemetry
}

// Build construye todo el grafo. Si falla a mitad, cierra lo ya abierto.
func Build(ctx context.Context, cfg *config.Config) (_ *Container, err error) {
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	flavor, err := cfg.Flavor()
	if err != nil {
		return nil, err
	}

	c.telemetry, err = tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     cfg.Tracing.Headers,
		ServiceName: "nango-connect",
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if c.Metrics, err = metrics.New(reg); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	switch cfg.Storage.Driver {
	case "memory":
		logger.L().Warn("using in-memory store; data is lost on restart", logger.Component("store"))
		c.Store = memory.New()
	default:
		st, err := pg.Open(ctx, pg.Config{
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		c.Store = st
		if err := metrics.RegisterPool(reg, st.Pool); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	c.Cache, err = cache.New(ctx, cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.MemoryTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	c.Plans = plans.NewService(flavor, c.Store.Plans(), c.Cache, cfg.MemoryTTL())

	c.Tokens, err = jwt.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	hasher, err := tokens.NewHasher(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, err
	}
	issuer := credentials.NewIssuer(hasher)

	coordinator := connect.NewCoordinator(connect.CoordinatorConfig{
		TxManager:          c.Store,
		Issuer:             issuer,
		Operations:         operations.NewProvider(),
		CanOverrideDocLink: plans.CanOverrideDocLink,
		TTL:                cfg.Connect.TokenTTL,
		TxTimeout:          cfg.Connect.TxTimeout,
	})
	c.Creator = connect.NewInstrumented(coordinator, c.Metrics, tracing.Tracer("nango/connect"))
	c.Lookup = connect.NewLookup(c.Store, issuer)

	var rateLimit mw.Middleware
	if cfg.Rate.Enabled {
		var limiter mw.RateLimiter = rate.NewMemoryLimiter(cfg.Rate.Max, cfg.Rate.Window)
		if rdb, ok := cache.RedisOf(c.Cache); ok {
			limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.Max, cfg.Rate.Window)
		}
		rateLimit = mw.WithTenantRateLimit(limiter)
	}

	checks := map[string]healthctrl.Check{"store": c.Store.Ping}
	if cfg.Cache.Kind == "redis" {
		checks["redis"] = c.Cache.Ping
	}

	c.Handler = router.New(router.Deps{
		Sessions:       connectctrl.NewSessionsController(c.Creator, c.Plans, c.Lookup, cfg.Connect.UIURL),
		Health:         healthctrl.NewHealthController(checks),
		TenantAuth:     mw.WithTenantAuth(c.Tokens),
		RateLimit:      rateLimit,
		Metrics:        c.Metrics.Middleware,
		MetricsHandler: metrics.Handler(reg),
	})
	return c, nil
}

// Close libera store, cache y tracing. Seguro con campos nil.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if err := c.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}
