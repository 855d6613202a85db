package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/delivery"
	lockerhttp "github.com/aussiebroadwan/locker/internal/locker/http"
	"github.com/aussiebroadwan/locker/internal/locker/metrics"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/memory"
	"github.com/aussiebroadwan/locker/pkg/cryptox"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
	"github.com/aussiebroadwan/locker/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var fastParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type options struct {
	store   store.Store
	denial  service.DenialPolicy
	limits  httpx.RateLimitProfiles
	metrics *metrics.Metrics
	cors    httpx.CORSConfig
}

type server struct {
	router   *lockerhttp.Router
	recorder *delivery.Recorder
	tokens   *service.TokenService
}

func newServer(t *testing.T, opts options) *server {
	t.Helper()

	st := opts.store
	if st == nil {
		st = memory.NewStore()
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:     []byte("http-test-secret-http-test-secret!"),
		Issuer:     "locker-test",
		SessionTTL: 30 * time.Minute,
		ResetTTL:   15 * time.Minute,
	})
	require.NoError(t, err)

	hasher := cryptox.NewHasher(fastParams, "")
	rec := &delivery.Recorder{}

	r := lockerhttp.NewRouter("test", st, slogx.Discard())
	r.Guard = &service.AuthGuard{Tokens: tokens, Store: st}
	r.AuthService = &service.AuthService{
		Store:    st,
		Hasher:   hasher,
		Tokens:   tokens,
		Delivery: rec,
		ResetURL: "http://localhost:5175/reset-password",
	}
	r.ItemService = &service.ItemService{Store: st, Policy: service.OwnershipPolicy{Denial: opts.denial}}
	// Zero-valued profiles disable limiting unless a test asks for it.
	r.Limits = opts.limits
	r.Metrics = opts.metrics
	r.CORS = opts.cors
	r.ApplyRoutes()

	return &server{router: r, recorder: rec, tokens: tokens}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) register(t *testing.T, username, email, password string) lockersdk.UserResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/register", "", lockersdk.RegisterRequest{
		Username: username, Email: email, Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[lockersdk.UserResponse](t, rec)
}

func (s *server) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.postForm(t, "/v1/token", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[lockersdk.TokenResponse](t, rec).AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, code, decode[lockersdk.ErrorResponse](t, rec).Error)
}

// brokenStore fails Ping and nothing else.
type brokenStore struct {
	store.Store
}

func (brokenStore) Ping(context.Context) error { return errors.New("connection refused") }
