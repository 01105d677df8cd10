package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbMundada/nango/internal/cache"
	"github.com/dbMundada/nango/internal/connect"
	"github.com/dbMundada/nango/internal/credentials"
	"github.com/dbMundada/nango/internal/domain/repository"
	connectctrl "github.com/dbMundada/nango/internal/http/controllers/connect"
	healthctrl "github.com/dbMundada/nango/internal/http/controllers/health"
	mw "github.com/dbMundada/nango/internal/http/middlewares"
	"github.com/dbMundada/nango/internal/jwt"
	"github.com/dbMundada/nango/internal/operations"
	"github.com/dbMundada/nango/internal/plans"
	"github.com/dbMundada/nango/internal/rate"
	"github.com/dbMundada/nango/internal/store/memory"
)

const (
	testSecret = "test-secret-0123456789abcdef"
	testUIURL  = "https://connect.example.com/"
	testEnv    = "env-1"
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	bearer  string
}

func newTestServer(t *testing.T, flavor plans.Flavor, integrations ...string) *testServer {
	t.Helper()
	return newTestServerWith(t, flavor, nil, integrations...)
}

func newTestServerWith(t *testing.T, flavor plans.Flavor, mutate func(*Deps), integrations ...string) *testServer {
	t.Helper()
	store := memory.New()
	for _, k := range integrations {
		_, err := store.Integrations().Create(context.Background(), repository.CreateIntegrationInput{
			EnvironmentID: testEnv, UniqueKey: k, Provider: k,
		})
		require.NoError(t, err)
	}

	codec, err := jwt.NewCodec(testSecret, "nango")
	require.NoError(t, err)
	bearer, err := codec.Mint("acc-1", testEnv, time.Hour)
	require.NoError(t, err)

	issuer := credentials.NewIssuer(nil)
	coord := connect.NewCoordinator(connect.CoordinatorConfig{
		TxManager:          store,
		Issuer:             issuer,
		Operations:         operations.NewProvider(),
		CanOverrideDocLink: plans.CanOverrideDocLink,
	})
	planSvc := plans.NewService(flavor, store.Plans(), cache.NewMemory("test", time.Minute), time.Minute)

	deps := Deps{
		Sessions:   connectctrl.NewSessionsController(coord, planSvc, connect.NewLookup(store, issuer), testUIURL),
		Health:     healthctrl.NewHealthController(map[string]healthctrl.Check{"store": store.Ping}),
		TenantAuth: mw.WithTenantAuth(codec),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return &testServer{handler: New(deps), store: store, bearer: bearer}
}

func (s *testServer) do(t *testing.T, method, target, bearer, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return e
}

func TestCreateSession_EndToEnd(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh", "slack")

	before := time.Now()
	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer,
		`{"end_user": {"email": "a@b.com"}, "allowed_integrations": ["gh"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := body["data"].(map[string]any)
	token := data["token"].(string)
	assert.True(t, strings.HasPrefix(token, "nango_connect_session_"))
	assert.Contains(t, data["connect_link"], "session_token="+token)
	assert.True(t, strings.HasPrefix(data["connect_link"].(string), testUIURL))

	exp, err := time.Parse(time.RFC3339, data["expires_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(30*time.Minute), exp, 5*time.Second)

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, s.store.OperationCount())

	// el token sirve para leer la sesión
	rec, body = s.do(t, http.MethodGet, "/connect/session", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := body["data"].(map[string]any)
	assert.Equal(t, []any{"gh"}, view["allowed_integrations"])
	assert.Equal(t, "a@b.com", view["end_user"].(map[string]any)["email"])
	assert.Equal(t, data["expires_at"], view["expires_at"])
	assert.NotContains(t, rec.Body.String(), token)
}

func TestCreateSession_UnknownIntegration(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh", "slack")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{"allowed_integrations": ["nope"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := errorOf(t, body)
	assert.Equal(t, "invalid_body", e["code"])
	errs := e["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, []any{"allowed_integrations", float64(0)}, first["path"])
	assert.Equal(t, "integration_not_found", first["code"])
	assert.Equal(t, "integration does not exist", first["message"])

	sessions, err := s.store.ConnectSessions().ListByEnvironment(context.Background(), testEnv)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCreateSession_ReferenceErrorsKeepRequestOrder(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{"allowed_integrations": ["a", "z"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errs := errorOf(t, body)["errors"].([]any)
	require.Len(t, errs, 2)
	assert.Equal(t, []any{"allowed_integrations", float64(0)}, errs[0].(map[string]any)["path"])
	assert.Equal(t, []any{"allowed_integrations", float64(1)}, errs[1].(map[string]any)["path"])
}

func TestCreateSession_SchemaErrors(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{"unknown": true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := errorOf(t, body)
	assert.Equal(t, "invalid_body", e["code"])
	assert.Equal(t, "unrecognized_keys", e["errors"].([]any)[0].(map[string]any)["code"])
}

func TestCreateSession_SchemaAndFormatFindingsInOneResponse(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer,
		`{"foo": 1, "allowed_integrations": ["bad/key"], "overrides": {"gh": {"docs_connect": "not a url"}}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errs := errorOf(t, body)["errors"].([]any)
	require.Len(t, errs, 3)
	assert.Equal(t, "unrecognized_keys", errs[0].(map[string]any)["code"])
	assert.Equal(t, []any{"allowed_integrations", float64(0)}, errs[1].(map[string]any)["path"])
	assert.Equal(t, "invalid_string", errs[1].(map[string]any)["code"])
	assert.Equal(t, []any{"overrides", "gh", "docs_connect"}, errs[2].(map[string]any)["path"])
	assert.Equal(t, "invalid_string", errs[2].(map[string]any)["code"])
}

func TestCreateSession_OrganizationWithoutEndUserIsKept(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer,
		`{"organization": {"id": "org-1", "display_name": "Acme"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token := body["data"].(map[string]any)["token"].(string)
	rec, body = s.do(t, http.MethodGet, "/connect/session", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	eu := body["data"].(map[string]any)["end_user"].(map[string]any)
	assert.NotContains(t, eu, "id")
	assert.Equal(t, map[string]any{"id": "org-1", "display_name": "Acme"}, eu["organization"])
}

func TestCreateSession_NonJSONContentType(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	req := httptest.NewRequest(http.MethodPost, "/connect/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+s.bearer)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	e := errorOf(t, body)
	assert.Equal(t, "invalid_body", e["code"])
	first := e["errors"].([]any)[0].(map[string]any)
	assert.Equal(t, "invalid_type", first["code"])
	assert.Equal(t, []any{}, first["path"])
}

func TestCreateSession_QueryParamsRejected(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions?foo=bar", s.bearer, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_query_params", errorOf(t, body)["code"])
}

func TestCreateSession_DocsOverrideNeedsCapability(t *testing.T) {
	s := newTestServer(t, plans.FlavorCloud, "gh")

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer,
		`{"overrides": {"gh": {"docs_connect": "https://docs.example.com"}}}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorOf(t, body)["code"])

	// con capacidad pasa
	s.store.SeedPlan(repository.Plan{AccountID: "acc-1", Name: "growth", CanOverrideDocsConnectURL: true})
	rec, _ = s.do(t, http.MethodPost, "/connect/sessions", s.bearer,
		`{"overrides": {"gh": {"docs_connect": "https://docs.example.com"}}}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateSession_RequiresTenant(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted)

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorOf(t, body)["code"])

	rec, _ = s.do(t, http.MethodPost, "/connect/sessions", "garbage", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession_NotIdempotent(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted, "gh")

	_, first := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{}`)
	_, second := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{}`)
	assert.NotEqual(t,
		first["data"].(map[string]any)["token"],
		second["data"].(map[string]any)["token"])
}

func TestGetSession_UnknownToken(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted)

	rec, body := s.do(t, http.MethodGet, "/connect/session", "nango_connect_session_deadbeef", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unknown_token", errorOf(t, body)["code"])
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted)

	rec, body := s.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", errorOf(t, body)["code"])

	rec, body = s.do(t, http.MethodGet, "/connect/sessions", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", errorOf(t, body)["code"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, plans.FlavorSelfHosted)

	rec, body := s.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = s.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestCreateSession_RateLimited(t *testing.T) {
	s := newTestServerWith(t, plans.FlavorSelfHosted, func(d *Deps) {
		d.RateLimit = mw.WithTenantRateLimit(rate.NewMemoryLimiter(1, time.Hour))
	})

	rec, _ := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/connect/sessions", s.bearer, `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", errorOf(t, body)["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
