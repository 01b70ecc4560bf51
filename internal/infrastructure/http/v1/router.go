// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"dsrsales/internal/core/security"
	"dsrsales/internal/infrastructure/http/v1/dto"
	"dsrsales/internal/infrastructure/http/v1/handlers"
	"dsrsales/internal/infrastructure/http/v1/middleware"
	"dsrsales/internal/metadata"
	"dsrsales/pkg/logger"
)

// RouterConfig holds every dependency the API needs.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Readiness is probed by /health/ready (the Postgres pool in production)
	Readiness handlers.ReadinessChecker

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Policy guards every protected route by operation name
	Policy *security.AccessPolicy

	Users     handlers.UserService
	Products  handlers.ProductService
	Audit     handlers.AuditReader
	Stock     handlers.StockService
	Sales     handlers.SalesService
	Dashboard interface {
		handlers.DashboardService
		handlers.Invalidator
	}
	Search   handlers.SearchService
	Registry *metadata.Registry

	// Idempotency stores request keys when IdempotencyEnabled is set
	Idempotency        middleware.IdempotencyStore
	IdempotencyEnabled bool

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	dto.RegisterValidators()

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Policy == nil {
		cfg.Policy = security.MustDefaultPolicy()
	}

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler so
	// a recovered panic still gets a JSON body.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	base := handlers.NewBaseHandler()

	healthHandler := handlers.NewHealthHandler(cfg.Readiness)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(base, cfg.Users)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.UserContext())
	if cfg.IdempotencyEnabled && cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	guard := func(op string) gin.HandlerFunc {
		return middleware.RequirePolicy(cfg.Policy, op)
	}

	registerAuthRoutes(protected, authHandler, guard)
	registerProductRoutes(protected, handlers.NewProductHandler(base, cfg.Products, cfg.Audit), guard)

	var invalidator handlers.Invalidator
	if cfg.Dashboard != nil {
		invalidator = cfg.Dashboard
		dashboardHandler := handlers.NewDashboardHandler(base, cfg.Dashboard)
		protected.GET("/dashboard/summary", guard(security.OpDashboard), dashboardHandler.Summary)
	}

	registerStockRoutes(protected, handlers.NewStockHandler(base, cfg.Stock, invalidator), guard)
	registerSalesRoutes(protected, handlers.NewSalesHandler(base, cfg.Sales, invalidator), guard)
	registerSearchRoutes(protected, handlers.NewSearchHandler(base, cfg.Search), handlers.NewMetadataHandler(base, cfg.Registry), guard)

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler, guard func(string) gin.HandlerFunc) {
	rg.GET("/auth/me", h.Me)
	rg.POST("/auth/password", h.ChangePassword)

	users := rg.Group("/users", guard(security.OpUserAdmin))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
	}
}

func registerProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler, guard func(string) gin.HandlerFunc) {
	products := rg.Group("/products")
	{
		products.GET("", guard(security.OpCatalogRead), h.List)
		products.GET("/:id", guard(security.OpCatalogRead), h.Get)
		products.GET("/:id/history", guard(security.OpCatalogRead), h.History)
		products.POST("", guard(security.OpCatalogWrite), h.Create)
		products.PUT("/:id", guard(security.OpCatalogWrite), h.Update)
		products.POST("/:id/status", guard(security.OpCatalogWrite), h.SetStatus)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, h *handlers.StockHandler, guard func(string) gin.HandlerFunc) {
	stocks := rg.Group("/stocks")
	{
		stocks.GET("", guard(security.OpStockRead), h.List)
		stocks.GET("/mine", guard(security.OpStockRead), h.Mine)
		stocks.GET("/holder/:userId", guard(security.OpStockRead), h.ByHolder)
		stocks.GET("/:id", guard(security.OpStockRead), h.Get)
		stocks.GET("/:id/history", guard(security.OpStockRead), h.History)

		stocks.POST("", guard(security.OpStockAdd), h.Add)
		stocks.POST("/bulk", guard(security.OpStockAdd), h.BulkAdd)
		stocks.POST("/bulk-allocate", guard(security.OpStockAllocate), h.BulkAllocate)
		stocks.POST("/:id/allocate", guard(security.OpStockAllocate), h.Allocate)
		stocks.POST("/:id/return", guard(security.OpStockReturn), h.Return)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, h *handlers.SalesHandler, guard func(string) gin.HandlerFunc) {
	sales := rg.Group("/sales")
	{
		sales.POST("", guard(security.OpSaleCreate), h.Process)
		sales.GET("/orders/:orderId", guard(security.OpSaleRead), h.Order)
		sales.GET("/orders/:orderId/receipt", guard(security.OpSaleRead), h.Receipt)
		sales.POST("/:id/return", guard(security.OpSaleReverse), h.Return)
		sales.DELETE("/:id", guard(security.OpSaleReverse), h.Undo)
	}

	customers := rg.Group("/customers", guard(security.OpSaleRead))
	{
		customers.GET("", h.ListCustomers)
		customers.GET("/:id", h.GetCustomer)
		customers.GET("/:id/sales", h.CustomerSales)
	}
}

func registerSearchRoutes(rg *gin.RouterGroup, search *handlers.SearchHandler, meta *handlers.MetadataHandler, guard func(string) gin.HandlerFunc) {
	rg.GET("/search", guard(security.OpSearch), search.All)
	rg.GET("/search/:entity", guard(security.OpSearch), search.Entity)

	rg.GET("/meta", meta.ListEntities)
	rg.GET("/meta/:name", meta.GetEntity)
}
