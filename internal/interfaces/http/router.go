// Package http assembles the substrate's HTTP route tree: the public
// Kubernetes health probes plus the /v1 query surface (walk, astar, atom
// lookup), wrapped in the platform's standard CORS/logging/rate-limit
// middleware chain.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	"github.com/hartonomous/substrate/internal/interfaces/http/handlers"
	"github.com/hartonomous/substrate/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required to
// construct the complete HTTP route tree.
type RouterConfig struct {
	HealthHandler    *handlers.HealthHandler
	SubstrateHandler *handlers.SubstrateHandler

	CORSConfig      middleware.CORSConfig
	LoggingConfig   middleware.LoggingConfig
	RateLimiter     middleware.RateLimiter
	RateLimitConfig middleware.RateLimitConfig

	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration. It wires global middleware, public health endpoints, and
// the /v1 query surface into a single http.Handler suitable for use with
// internal/interfaces/http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// --- Global middleware (applied to every request) ---
	corsCfg := cfg.CORSConfig
	if len(corsCfg.AllowedMethods) == 0 {
		corsCfg = middleware.DefaultCORSConfig()
	}
	engine.Use(wrapStd(middleware.CORS(corsCfg)))

	loggingCfg := cfg.LoggingConfig
	if loggingCfg.SlowThreshold == 0 {
		loggingCfg = middleware.DefaultLoggingConfig()
	}
	if cfg.Logger != nil {
		engine.Use(wrapStd(middleware.RequestLogging(cfg.Logger, loggingCfg)))
	}

	if cfg.RateLimiter != nil {
		rlCfg := cfg.RateLimitConfig
		if rlCfg.RequestsPerSecond == 0 {
			rlCfg = middleware.DefaultRateLimitConfig()
		}
		engine.Use(wrapStd(middleware.RateLimit(cfg.RateLimiter, rlCfg)))
	}

	// --- Public health endpoints (no rate limiting concerns beyond the above) ---
	if cfg.HealthHandler != nil {
		engine.GET("/healthz", wrapHandlerFunc(cfg.HealthHandler.Liveness))
		engine.GET("/readyz", wrapHandlerFunc(cfg.HealthHandler.Readiness))
		engine.GET("/healthz/detail", wrapHandlerFunc(cfg.HealthHandler.Detailed))
	}

	// --- Substrate query surface ---
	if cfg.SubstrateHandler != nil {
		cfg.SubstrateHandler.RegisterRoutes(engine)
	}

	return engine
}

// wrapStd adapts a standard net/http middleware (func(http.Handler) http.Handler)
// into a gin.HandlerFunc, letting the platform's existing CORS/logging/
// rate-limit middleware run unchanged ahead of gin's own routing.
func wrapStd(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next = true
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !next {
			c.Abort()
		}
	}
}

// wrapHandlerFunc adapts a plain http.HandlerFunc (as used by handlers.HealthHandler,
// which predates gin in this tree) into a gin.HandlerFunc.
func wrapHandlerFunc(h http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		h(c.Writer, c.Request)
	}
}
