package http_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/metrics"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/memory"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
	"github.com/stretchr/testify/require"
)

func TestSystemRoutes(t *testing.T) {
	s := newServer(t, options{})

	t.Run("root", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, lockersdk.WelcomeMessage, decode[lockersdk.MessageResponse](t, rec).Message)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/nope", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("livez", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		h := decode[lockersdk.HealthResponse](t, rec)
		require.Equal(t, "ok", h.Status)
		require.Equal(t, "test", h.Version)
	})

	t.Run("readyz", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/readyz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decode[lockersdk.HealthResponse](t, rec).Checks.Database)
	})

	t.Run("request id echoed", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/livez", "", nil)
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestReadyz_Degraded(t *testing.T) {
	s := newServer(t, options{store: brokenStore{Store: memory.NewStore()}})

	rec := s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := decode[lockersdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", h.Status)
	require.Equal(t, "error", h.Checks.Database)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s := newServer(t, options{metrics: m})

	s.register(t, "bob", "bob@example.com", "pw1")
	s.postForm(t, "/v1/token", url.Values{"username": {"bob"}, "password": {"wrong"}})

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `locker_auth_events_total{event="register",outcome="success"} 1`)
	require.Contains(t, body, `locker_auth_events_total{event="login",outcome="failure"} 1`)
	require.Contains(t, body, `route="POST /v1/register"`)
}

func TestMetricsEndpoint_DisabledWithoutMetrics(t *testing.T) {
	s := newServer(t, options{})
	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit_StrictOnRegister(t *testing.T) {
	limits := httpx.RateLimitProfiles{
		Strict: httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
	}
	s := newServer(t, options{limits: limits})

	s.register(t, "bob", "bob@example.com", "pw1")

	rec := s.do(t, http.MethodPost, "/v1/register", "", lockersdk.RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "pw2",
	})
	requireAPIError(t, rec, http.StatusTooManyRequests, lockersdk.ErrorCodeRateLimited)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimit_LoginKeyedByUsername(t *testing.T) {
	limits := httpx.RateLimitProfiles{
		Strict: httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
	}
	s := newServer(t, options{limits: limits})

	first := s.postForm(t, "/v1/token", url.Values{"username": {"alice"}, "password": {"x"}})
	require.Equal(t, http.StatusUnauthorized, first.Code)

	again := s.postForm(t, "/v1/token", url.Values{"username": {"alice"}, "password": {"x"}})
	require.Equal(t, http.StatusTooManyRequests, again.Code)

	other := s.postForm(t, "/v1/token", url.Values{"username": {"bob"}, "password": {"x"}})
	require.Equal(t, http.StatusUnauthorized, other.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t, options{cors: httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Body.String(), "preflight never reaches a handler")
}

func TestSwagger(t *testing.T) {
	s := newServer(t, options{})
	rec := s.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/v1/items/{id}")
}

func TestOwnershipDenial_NotFoundMode(t *testing.T) {
	s := newServer(t, options{denial: service.DenyNotFound})

	s.register(t, "bob", "bob@example.com", "pw1")
	s.register(t, "carol", "carol@example.com", "pw2")
	bob := s.login(t, "bob", "pw1")
	carol := s.login(t, "carol", "pw2")

	created := s.do(t, http.MethodPost, "/v1/items", bob, lockersdk.ItemRequest{Title: "secret"})
	require.Equal(t, http.StatusCreated, created.Code)
	item := decode[lockersdk.ItemResponse](t, created)

	foreign := s.do(t, http.MethodGet, itemURL(item.ID), carol, nil)
	missing := s.do(t, http.MethodGet, itemURL(item.ID+100), carol, nil)

	requireAPIError(t, foreign, http.StatusNotFound, lockersdk.ErrorCodeItemNotFound)
	require.Equal(t, missing.Body.String(), foreign.Body.String())
}
