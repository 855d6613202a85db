package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/metrics"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/slogx"

	_ "github.com/aussiebroadwan/locker/api/locker" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Guard       *service.AuthGuard
	AuthService *service.AuthService
	ItemService *service.ItemService

	// Optional. Nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics
	Limits  httpx.RateLimitProfiles
	CORS    httpx.CORSConfig
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Limits:       httpx.DefaultProfiles(),
	}
}

// ApplyRoutes registers every route and freezes the middleware chain. Call it
// once after the services are wired.
func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerAccounts()
	r.registerUsers()
	r.registerItems()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}

	var mws []httpx.Middleware
	mws = append(mws, slogx.HTTPMiddleware(r.logger))
	if len(r.CORS.AllowedOrigins) > 0 {
		mws = append(mws, httpx.CORS(r.CORS))
	}
	// Metrics wraps the mux directly so it can read the matched pattern.
	r.handler = httpx.Chain(r.Metrics.Middleware(r.Mux), mws...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Locker API
//	@version		0.1.0
//	@description	Users register, log in for a short-lived bearer token and manage a private collection of items.
//	@description	Password reset works through a signed token delivered out of band.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/locker
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8000
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from /v1/token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		http.Error(w, "router not initialised", http.StatusInternalServerError)
		return
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware[domain.User](r.Guard,
		func(u domain.User) string { return u.Username },
		r.writeAuthError,
	)
}

func (r *Router) registerSystem() {
	// Health checks and the welcome route: lenient, monitoring polls often.
	r.Mux.Handle("GET /{$}",
		httpx.Chain(RootHandler(), httpx.RateLimitByIP(r.Limits.Lenient)),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion), httpx.RateLimitByIP(r.Limits.Lenient)),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store), httpx.RateLimitByIP(r.Limits.Lenient)),
	)
}

func (r *Router) registerAccounts() {
	register := &RegisterHandler{AuthService: r.AuthService, Metrics: r.Metrics}
	token := &TokenHandler{AuthService: r.AuthService, Metrics: r.Metrics}
	password := &PasswordHandler{AuthService: r.AuthService, Metrics: r.Metrics}

	r.Mux.Handle("POST /v1/register",
		httpx.Chain(register, httpx.RateLimitByIP(r.Limits.Strict)),
	)

	// Limited per IP and username so one noisy account does not lock out a shared IP.
	r.Mux.Handle("POST /v1/token",
		httpx.Chain(token, httpx.RateLimitByIPAndFormField(r.Limits.Strict, "username")),
	)

	r.Mux.Handle("POST /v1/forgot-password",
		httpx.Chain(http.HandlerFunc(password.HandleForgot), httpx.RateLimitByIP(r.Limits.Strict)),
	)
	r.Mux.Handle("POST /v1/reset-password",
		httpx.Chain(http.HandlerFunc(password.HandleReset), httpx.RateLimitByIP(r.Limits.Strict)),
	)
}

func (r *Router) registerUsers() {
	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(MeHandler(r.ItemService),
			r.authn(),
			httpx.RateLimitBySubject(r.Limits.Lenient),
		),
	)
}

func (r *Router) registerItems() {
	h := &ItemsHandler{ItemService: r.ItemService}

	read := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, r.authn(), httpx.RateLimitBySubject(r.Limits.Lenient))
	}
	write := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, r.authn(), httpx.RateLimitBySubject(r.Limits.Moderate))
	}

	r.Mux.Handle("GET /v1/items", read(h.HandleList))
	r.Mux.Handle("POST /v1/items", write(h.HandleCreate))
	r.Mux.Handle("GET /v1/items/{id}", read(h.HandleGet))
	r.Mux.Handle("DELETE /v1/items/{id}", write(h.HandleDelete))
}
