package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/internal/store"
	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/slumberware/slumber/pkg/slogx"

	_ "github.com/slumberware/slumber/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	IdentityService *service.IdentityService
	TokenService    *service.TokenService
	SleepService    *service.SleepService

	// AuthnOpts carries the development-only debug header switch. The config
	// loader guarantees it is off outside dev and test.
	AuthnOpts httpx.AuthnOptions
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerIdentity()
	r.registerTokens()
	r.registerSleep()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Slumber Auth Service API
//	@version		0.1.0
//	@description	Anonymous identity and token service for the Slumber sleep tracking app.
//	@description
//	@description				Accounts are anonymous: a client-generated device fingerprint (UUID) maps to
//	@description				an account with no personal data attached. Access tokens are JWTs signed with
//	@description				EdDSA by default and verifiable against the JWKS endpoint.
//
//	@contact.name				Slumberware Team
//	@contact.url				https://github.com/slumberware/slumber
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// SetRequestTimeout adds a per-request deadline to the global middleware
// chain. A zero or negative duration is ignored.
func (r *Router) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		r.middlewares = append(r.middlewares, httpx.WithTimeout(d))
	}
}

// authn is the shared authentication middleware for protected endpoints.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddlewareWithOptions(r.verifier, r.AuthnOpts)
}

func (r *Router) registerIdentity() {
	// POST /v1/identity - strict rate limit by IP (account creation endpoint)
	identityHandler := &IdentityHandler{IdentityService: r.IdentityService}
	r.Mux.Handle("POST /v1/identity",
		httpx.Chain(identityHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTokens() {
	// POST /token - strict rate limit by IP + device fingerprint so one
	// device cannot starve the rest of a NAT
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "device_fingerprint"),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Introspection endpoint (RFC7662) - requires authentication, moderate limit
	introspectHandler := &IntrospectHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/introspect",
		httpx.Chain(introspectHandler,
			r.authn(),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSleep() {
	h := &SleepHandler{SleepService: r.SleepService}

	// POST /v1/sleep - record an entry (requires sleep:write)
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		r.authn(),
		httpx.RequireAnyScope(service.ScopeSleepWrite),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	// GET /v1/sleep - list own entries (requires sleep:read)
	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		r.authn(),
		httpx.RequireAnyScope(service.ScopeSleepRead),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	// GET /v1/sleep/{id} - fetch one own entry (requires sleep:read)
	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		r.authn(),
		httpx.RequireAnyScope(service.ScopeSleepRead),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	// DELETE /v1/sleep/{id} - delete one own entry (requires sleep:write)
	securedDelete := httpx.Chain(http.HandlerFunc(h.HandleDelete),
		r.authn(),
		httpx.RequireAnyScope(service.ScopeSleepWrite),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	r.Mux.Handle("POST /v1/sleep", securedCreate)
	r.Mux.Handle("GET /v1/sleep", securedList)
	r.Mux.Handle("GET /v1/sleep/{id}", securedGet)
	r.Mux.Handle("DELETE /v1/sleep/{id}", securedDelete)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
