package router

import (
	"github.com/dropship/backend/internal/infrastructure/auth"
	"github.com/dropship/backend/internal/infrastructure/config"
	"github.com/dropship/backend/internal/infrastructure/logger"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/dropship/backend/internal/interfaces/http/handler"
	"github.com/dropship/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers of the API
type Handlers struct {
	Imports     *handler.ImportHandler
	Orders      *handler.OrderHandler
	Fulfillment *handler.FulfillmentHandler
	Catalog     *handler.CatalogHandler
	System      *handler.SystemHandler
}

// APIConfig holds what the engine needs besides the handlers
type APIConfig struct {
	App            config.AppConfig
	HTTP           config.HTTPConfig
	Tracing        middleware.TracingConfig
	Meters         *telemetry.MeterProvider
	TokenValidator middleware.TokenValidator
	// PreviewLimiter bounds extract previews per tenant. Nil disables the limit.
	PreviewLimiter middleware.Limiter
	Logger         *zap.Logger
}

// NewEngine builds the gin engine with the middleware stack, the health
// routes and the authenticated /api/v1 routes.
func NewEngine(cfg APIConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request logger assigns the request ID every later
	// middleware reads, and tracing must wrap the error marker.
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meters, log))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig(cfg.App.Env)))
	engine.Use(middleware.CORSWithConfig(middleware.CORSFromConfig(&cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/health/ready", h.System.Ready)

	jwtConfig := middleware.DefaultJWTConfig(cfg.TokenValidator)
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TracingAttributeInjector(),
		middleware.ProfilingLabels(),
	)
	registerRoutes(r, cfg, h, log)
	r.Setup()

	return engine
}

func registerRoutes(r *Router, cfg APIConfig, h Handlers, log *zap.Logger) {
	perm := func(p string) gin.HandlerFunc {
		return middleware.RequireAnyPermissionWithConfig(middleware.PermissionConfig{Logger: log}, p)
	}

	imports := NewDomainGroup("/imports")
	products := imports.Group("/products")
	products.POST("", perm(auth.PermissionImportCreate), h.Imports.ImportProducts)
	products.GET("", perm(auth.PermissionImportRead), h.Imports.ListImported)
	products.POST("/bulk-approve", perm(auth.PermissionImportApprove), h.Imports.BulkApprove)
	products.GET("/:id", perm(auth.PermissionImportRead), h.Imports.GetImported)
	products.POST("/:id/approve", perm(auth.PermissionImportApprove), h.Imports.Approve)
	products.POST("/:id/reject", perm(auth.PermissionImportApprove), h.Imports.Reject)
	jobs := imports.Group("/jobs").Use(perm(auth.PermissionImportRead))
	jobs.GET("", h.Imports.ListJobs)
	jobs.GET("/:id", h.Imports.GetJob)
	r.Register(imports)

	preview := []gin.HandlerFunc{perm(auth.PermissionImportCreate)}
	if cfg.PreviewLimiter != nil {
		preview = append(preview, middleware.RateLimitByKey(cfg.PreviewLimiter, middleware.TenantKey, log))
	}
	extract := NewDomainGroup("/extract")
	extract.POST("/preview", append(preview, h.Imports.ExtractPreview)...)
	r.Register(extract)

	orders := NewDomainGroup("/orders")
	orders.POST("", perm(auth.PermissionOrderCreate), h.Orders.Create)
	orders.GET("/:id", perm(auth.PermissionOrderRead), h.Orders.GetByID)
	orders.POST("/:id/complete", perm(auth.PermissionOrderComplete), h.Orders.Complete)
	orders.POST("/:id/republish", perm(auth.PermissionOrderComplete), h.Orders.Republish)
	r.Register(orders)

	fulfillment := NewDomainGroup("/fulfillment")
	queue := fulfillment.Group("/queue")
	queue.GET("", perm(auth.PermissionFulfillmentRead), h.Fulfillment.List)
	queue.GET("/:id", perm(auth.PermissionFulfillmentRead), h.Fulfillment.Get)
	queue.POST("/:id/retry", perm(auth.PermissionFulfillmentManage), h.Fulfillment.Retry)
	r.Register(fulfillment)

	catalog := NewDomainGroup("/catalog")
	catalogProducts := catalog.Group("/products")
	catalogProducts.GET("", perm(auth.PermissionCatalogRead), h.Catalog.List)
	catalogProducts.POST("", perm(auth.PermissionCatalogCreate), h.Catalog.Create)
	catalogProducts.GET("/:id", perm(auth.PermissionCatalogRead), h.Catalog.GetByID)
	r.Register(catalog)
}
