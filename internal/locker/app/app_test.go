package app_test

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/app"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
	"github.com/aussiebroadwan/locker/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func testConfig() app.Config {
	return app.Config{
		Env:                 "test",
		Port:                0,
		ShutdownGracePeriod: 2 * time.Second,
		SecretKey:           "app-test-secret-app-test-secret-app!",
		Algorithm:           "HS256",
		Issuer:              "locker-test",
		AccessTokenTTL:      30 * time.Minute,
		ResetTokenTTL:       15 * time.Minute,
		Store:               app.StoreMemory,
		ResetURL:            "http://localhost:5175/reset-password",
		OwnershipDenial:     "forbidden",
		MetricsEnabled:      true,
		Bootstrap: app.BootstrapConfig{
			Enabled:  true,
			Username: "admin",
			Email:    "admin@example.com",
		},
	}
}

func newApp(t *testing.T, cfg app.Config, out *bytes.Buffer) *app.Application {
	t.Helper()
	a, err := app.New(context.Background(), cfg, app.WithLogger(slogx.Discard()), app.WithOutput(out))
	require.NoError(t, err)
	return a
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ResetTokenTTL = time.Hour

	_, err := app.New(context.Background(), cfg, app.WithLogger(slogx.Discard()))
	require.ErrorContains(t, err, "invalid config")
}

func TestOpenStore_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		store   string
		wantErr string
	}{
		{"memory", app.StoreMemory, ""},
		{"sqlite", app.StoreSQLite, ""},
		{"unknown driver", "mongo", `unknown store driver "mongo"`},
		{"empty driver", "", `unknown store driver ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Store = tt.store
			cfg.DatabaseFile = filepath.Join(t.TempDir(), "locker.db")

			db, err := app.OpenStore(context.Background(), cfg, slogx.Discard())
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.NoFileExists(t, cfg.DatabaseFile)
				return
			}
			require.NoError(t, err)
			require.NoError(t, db.Ping(context.Background()))
			require.NoError(t, db.Close())
		})
	}
}

func TestNew_EphemeralSecretInDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "dev"
	cfg.SecretKey = ""

	a := newApp(t, cfg, &bytes.Buffer{})
	t.Cleanup(func() { _ = a.Close() })
}

func TestBootstrap(t *testing.T) {
	a := newApp(t, testConfig(), &bytes.Buffer{})
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()

	created, password, err := a.Bootstrap(ctx)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, password)

	created, again, err := a.Bootstrap(ctx)
	require.NoError(t, err)
	require.False(t, created)
	require.Empty(t, again)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	sess, err := lockersdk.NewClient(srv.URL).Login(ctx, "admin", password)
	require.NoError(t, err)
	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", me.Email)
}

func TestApplication_ResetLinkOnConsole(t *testing.T) {
	var out bytes.Buffer
	a := newApp(t, testConfig(), &out)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := lockersdk.NewClient(srv.URL)
	_, err := c.Register(ctx, lockersdk.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = c.ForgotPassword(ctx, "bob@example.com")
	require.NoError(t, err)

	require.NoError(t, a.Close(), "close waits for the background delivery")
	require.Contains(t, out.String(), "http://localhost:5175/reset-password?token=")
}

func TestApplication_MetricsToggle(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := testConfig()
		cfg.MetricsEnabled = enabled

		a := newApp(t, cfg, &bytes.Buffer{})
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if enabled {
			require.Equal(t, http.StatusOK, rec.Code)
		} else {
			require.Equal(t, http.StatusNotFound, rec.Code)
		}
		require.NoError(t, a.Close())
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	a := newApp(t, testConfig(), &bytes.Buffer{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/livez")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_, err = http.Get(url + "/livez") //nolint:bodyclose // request must fail
	require.Error(t, err)
}
