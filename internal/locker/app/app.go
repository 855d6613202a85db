package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/delivery"
	"github.com/aussiebroadwan/locker/internal/locker/domain"
	httpapi "github.com/aussiebroadwan/locker/internal/locker/http"
	"github.com/aussiebroadwan/locker/internal/locker/metrics"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/memory"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/postgres"
	"github.com/aussiebroadwan/locker/internal/locker/store/drivers/sqlite"
	"github.com/aussiebroadwan/locker/pkg/cryptox"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application holds the locker service and all of its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger
	out    io.Writer

	db      store.Store
	hasher  *cryptox.Hasher
	metrics *metrics.Metrics

	tokenService     *service.TokenService
	authService      *service.AuthService
	itemService      *service.ItemService
	bootstrapService *service.BootstrapService
	guard            *service.AuthGuard

	server *http.Server
	router *httpapi.Router
}

// Option tweaks an Application before it is wired.
type Option func(*Application)

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.logger = l }
}

// WithOutput sets where console reset links go. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *Application) { a.out = w }
}

// New validates cfg and wires every dependency. Migrations are applied.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "locker",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, err
	}
	app.hasher = cryptox.NewHasher(cryptox.DefaultParams, pepper)

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := app.initServices(); err != nil {
		_ = db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// OpenStore opens the configured driver and applies its migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.Store {
	case StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		db = memory.NewStore()
	case StorePostgres:
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	case StoreSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q (sqlite, postgres, memory)", cfg.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Store, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "store", cfg.Store)
	return db, nil
}

func (app *Application) initServices() error {
	secret, err := app.signingSecret()
	if err != nil {
		return err
	}

	app.tokenService, err = service.NewTokenService(service.TokenConfig{
		Secret:     secret,
		Algorithm:  app.cfg.Algorithm,
		Issuer:     app.cfg.Issuer,
		SessionTTL: app.cfg.AccessTokenTTL,
		ResetTTL:   app.cfg.ResetTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	var deliverer service.TokenDelivery
	if app.cfg.SMTP.Host != "" {
		smtp, err := delivery.NewSMTPDeliverer(app.cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to initialize smtp delivery: %w", err)
		}
		deliverer = smtp
		app.logger.Info("reset links delivered by email", "smtp_host", app.cfg.SMTP.Host)
	} else {
		deliverer = delivery.NewConsoleDeliverer(app.out)
		app.logger.Info("reset links printed to stdout")
	}

	denial, _ := service.ParseDenialPolicy(app.cfg.OwnershipDenial)

	app.authService = &service.AuthService{
		Store:    app.db,
		Hasher:   app.hasher,
		Tokens:   app.tokenService,
		Delivery: deliverer,
		ResetURL: app.cfg.ResetURL,
	}
	app.itemService = &service.ItemService{
		Store:  app.db,
		Policy: service.OwnershipPolicy{Denial: denial},
	}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Hasher: app.hasher}
	app.guard = &service.AuthGuard{Tokens: app.tokenService, Store: app.db}

	if app.cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}
	return nil
}

// signingSecret returns the configured secret, or a random one in dev.
// Tokens signed with an ephemeral secret die with the process.
func (app *Application) signingSecret() ([]byte, error) {
	if app.cfg.SecretKey != "" {
		return []byte(app.cfg.SecretKey), nil
	}
	if !app.cfg.IsDev() {
		return nil, errors.New("LOCKER_SECRET_KEY is required outside dev")
	}

	secret, err := cryptox.RandomSecret(cryptox.SecretSize)
	if err != nil {
		return nil, err
	}
	app.logger.Warn("LOCKER_SECRET_KEY not set, using an ephemeral signing secret")
	return secret, nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Guard = app.guard
	router.AuthService = app.authService
	router.ItemService = app.itemService
	router.Metrics = app.metrics
	router.Limits = httpx.ProfilesFromEnv(httpx.DefaultProfiles(), os.Getenv)
	router.CORS = httpx.CORSConfig{
		AllowedOrigins:   app.cfg.CORSOrigins,
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Bootstrap ensures the configured default user exists. A generated password
// is returned for the caller to show once.
func (app *Application) Bootstrap(ctx context.Context) (bool, string, error) {
	ctx = slogx.WithContext(ctx, app.logger)
	return app.bootstrapService.EnsureDefaultUser(ctx, domain.DefaultUser{
		Username: app.cfg.Bootstrap.Username,
		Email:    app.cfg.Bootstrap.Email,
		Password: app.cfg.Bootstrap.Password,
	})
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return app.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info("locker starting", "addr", ln.Addr().String(), "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-serverErrors
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down locker...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("locker stopped")
	return nil
}

// Close waits for background reset deliveries and releases the store without
// touching the HTTP server. Used by one-shot commands.
func (app *Application) Close() error {
	if app.authService != nil {
		app.authService.Wait()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
