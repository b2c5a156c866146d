// Package router assembles the gin engine of the TMS HTTP API.
package router

import (
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/cache"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/logger"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/handler"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware that runs on the versioned API group only
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// Config collects what NewEngine wires together
type Config struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	ServiceName string
	// Tracing enables otelgin spans and their tenant and actor attributes
	Tracing bool
	Tokens  middleware.TokenValidator
	// Idempotency is optional; without it Idempotency-Key is ignored
	Idempotency cache.IdempotencyStore
	// Meter feeds the OTel HTTP metrics. Nil disables them.
	Meter metric.Meter
	// Gatherer is served on /metrics when set
	Gatherer prometheus.Gatherer
	System   *handler.SystemHandler
	Handlers []RouteRegistrar
}

// NewEngine builds the gin engine with the full middleware chain, the
// operational endpoints and the authenticated /api/v1 routes
func NewEngine(cfg Config) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, err
		}
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(
		middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{Meter: cfg.Meter, Enabled: cfg.Meter != nil, Logger: log}),
	)

	if cfg.System != nil {
		engine.GET("/health", cfg.System.Health)
		engine.GET("/ready", cfg.System.Ready)
		engine.GET("/system/info", cfg.System.Info)
	}
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: cfg.Tokens,
		Logger:    log,
	}))
	if cfg.Tracing {
		r.Use(middleware.TracingAttributeInjector(), middleware.SpanErrorMarker())
	}
	if cfg.Idempotency != nil {
		r.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  cfg.Idempotency,
			TTL:    cfg.HTTP.IdempotencyTTL,
			Logger: log,
		}))
	}
	r.Register(cfg.Handlers...)
	r.Setup()
	return engine, nil
}
