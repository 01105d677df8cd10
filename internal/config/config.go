package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dbMundada/nango/internal/plans"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
		// cloud | enterprise | self-hosted
		Flavor string `yaml:"flavor"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns int `yaml:"max_open_conns"`
			MaxIdleConns int `yaml:"max_idle_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`

	Security struct {
		// Master key para derivar la clave de los verificadores de tokens.
		EncryptionKey string `yaml:"encryption_key"`
	} `yaml:"security"`

	Connect struct {
		UIURL     string        `yaml:"ui_url"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
		TxTimeout time.Duration `yaml:"tx_timeout"`
	} `yaml:"connect"`

	Rate struct {
		Enabled bool          `yaml:"enabled"`
		Max     int           `yaml:"max"`
		Window  time.Duration `yaml:"window"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
		Headers  string `yaml:"headers"`
	} `yaml:"tracing"`
}

// Load lee el YAML (si existe), aplica defaults y overrides de
// entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3003"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "5m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "nango"
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "nango"
	}
	if c.Connect.UIURL == "" {
		c.Connect.UIURL = "http://localhost:5173"
	}
	if c.Connect.TokenTTL == 0 {
		c.Connect.TokenTTL = 30 * time.Minute
	}
	if c.Connect.TxTimeout == 0 {
		c.Connect.TxTimeout = 10 * time.Second
	}
	if c.Rate.Max == 0 {
		c.Rate.Max = 100
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("NANGO_FLAVOR"); ok {
		c.App.Flavor = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	} else if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("AUTH_JWT_ISSUER"); ok {
		c.Auth.JWTIssuer = v
	}

	// SECURITY
	if v, ok := getEnvStr("NANGO_ENCRYPTION_KEY"); ok {
		c.Security.EncryptionKey = v
	}

	// CONNECT
	if v, ok := getEnvStr("NANGO_CONNECT_UI_URL"); ok {
		c.Connect.UIURL = v
	}
	if v, ok := getEnvDur("CONNECT_TOKEN_TTL"); ok {
		c.Connect.TokenTTL = v
	}
	if v, ok := getEnvDur("CONNECT_TX_TIMEOUT"); ok {
		c.Connect.TxTimeout = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_LIMIT_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LIMIT_MAX"); ok {
		c.Rate.Max = v
	}
	if v, ok := getEnvDur("RATE_LIMIT_WINDOW"); ok {
		c.Rate.Window = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// TRACING
	if v, ok := getEnvBool("TRACING_ENABLED"); ok {
		c.Tracing.Enabled = v
	}
	if v, ok := getEnvStr("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		c.Tracing.Endpoint = v
	}
	if v, ok := getEnvStr("OTEL_EXPORTER_OTLP_HEADERS"); ok {
		c.Tracing.Headers = v
	}
}

// Validate revisa los valores críticos.
func (c *Config) Validate() error {
	if _, err := c.Flavor(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn required for postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}
	if _, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err != nil {
		return fmt.Errorf("config: cache.memory.default_ttl: %w", err)
	}
	u, err := url.Parse(c.Connect.UIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: connect.ui_url must be an absolute URL, got %q", c.Connect.UIURL)
	}
	if c.Connect.TokenTTL <= 0 || c.Connect.TxTimeout <= 0 {
		return errors.New("config: connect.token_ttl and connect.tx_timeout must be positive")
	}
	if c.Rate.Enabled && (c.Rate.Max <= 0 || c.Rate.Window <= 0) {
		return errors.New("config: rate.max and rate.window must be positive")
	}
	if strings.EqualFold(c.App.Env, "prod") {
		if len(c.Auth.JWTSecret) < 32 {
			return errors.New("config: auth.jwt_secret must be at least 32 bytes in prod")
		}
		if c.Security.EncryptionKey == "" {
			return errors.New("config: security.encryption_key required in prod")
		}
	}
	return nil
}

// Flavor parsea app.flavor.
func (c *Config) Flavor() (plans.Flavor, error) {
	return plans.ParseFlavor(c.App.Flavor)
}

// MemoryTTL retorna cache.memory.default_ttl ya parseado.
func (c *Config) MemoryTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	return d
}
