// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"smartsewing/internal/app"
	"smartsewing/internal/domain/auth"
	"smartsewing/internal/infrastructure/http/v1/handlers"
	"smartsewing/internal/infrastructure/http/v1/middleware"
	"smartsewing/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Container holds the services the handlers call
	Container *app.Container

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation; nil disables authentication
	JWTValidator middleware.JWTValidator

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// Health serves /health; nil registers a storage-less handler
	Health *handlers.HealthHandler

	// Debug switches gin to debug mode
	Debug bool
}

var (
	anyRole    = []string{auth.RoleAdmin, auth.RoleCashier, auth.RoleStock}
	salesRoles = []string{auth.RoleAdmin, auth.RoleCashier}
	stockRoles = []string{auth.RoleAdmin, auth.RoleStock}
	adminOnly  = []string{auth.RoleAdmin}
)

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := cfg.Health
	if healthHandler == nil {
		healthHandler = handlers.NewHealthHandler("smartsewing", "dev", "memory", nil)
	}
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	g := guard{enabled: cfg.JWTValidator != nil}

	v1 := router.Group("/api/v1")
	if g.enabled {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	}
	if cfg.IdempotencyEnabled && cfg.Container.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Container.Idempotency))
	}

	base := handlers.NewBaseHandler()
	if g.enabled {
		v1.GET("/auth/me", handlers.NewAuthHandler(base).Me)
	}

	registerCatalogRoutes(v1, cfg.Container, base, g)
	registerRegisterRoutes(v1, cfg.Container, base, g)
	registerDocumentRoutes(v1, cfg.Container, base, g)
	registerFinanceRoutes(v1, cfg.Container, base, g)

	return router
}

// registerCatalogRoutes registers product and location endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, c *app.Container, base *handlers.BaseHandler, g guard) {
	catalogs := rg.Group("/catalog")

	products := handlers.NewProductHandler(base, c.Products)
	RegisterCatalogRoutes(catalogs.Group("/products"), products, g, anyRole, stockRoles)

	// /default must be registered before /:id
	locations := handlers.NewLocationHandler(base, c.Locations)
	locGroup := catalogs.Group("/locations")
	locGroup.GET("/default", g.roles(anyRole...), locations.GetDefault)
	RegisterCatalogRoutes(locGroup, locations, g, anyRole, stockRoles)
	locGroup.POST("/:id/default", g.roles(stockRoles...), locations.SetDefault)
}

// registerRegisterRoutes registers stock register endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, c *app.Container, base *handlers.BaseHandler, g guard) {
	stockHandler := handlers.NewStockHandler(base, c.Stock, c.Resolver)

	stockGroup := rg.Group("/registers/stock")
	stockGroup.GET("/products/:id", g.roles(anyRole...), stockHandler.GetProductStock)
	stockGroup.GET("/locations", g.roles(anyRole...), stockHandler.GetLocationStock)
	stockGroup.GET("/movements", g.roles(anyRole...), stockHandler.GetMovements)
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, c *app.Container, base *handlers.BaseHandler, g guard) {
	docs := rg.Group("/documents")

	// --- SALES INVOICES ---
	{
		h := handlers.NewSalesInvoiceHandler(base, c.SalesInvoices)
		grp := docs.Group("/sales-invoices")
		grp.GET("/by-number/:number", g.roles(anyRole...), h.GetByNumber)
		RegisterDocumentRoutes(grp, h, g, anyRole, salesRoles)
		grp.POST("/:id/issue", g.roles(salesRoles...), h.Issue)
		grp.POST("/:id/cancel", g.roles(salesRoles...), h.Cancel)
		grp.POST("/:id/payments", g.roles(salesRoles...), h.RecordPayment)
	}

	// --- RENTAL CONTRACTS ---
	{
		h := handlers.NewRentalContractHandler(base, c.RentalContracts)
		grp := docs.Group("/rental-contracts")
		RegisterDocumentRoutes(grp, h, g, anyRole, salesRoles)
		grp.POST("/:id/activate", g.roles(salesRoles...), h.Activate)
		grp.POST("/:id/close", g.roles(salesRoles...), h.Close)
	}

	// --- RENTAL BILLS ---
	{
		h := handlers.NewRentalBillHandler(base, c.RentalBills)
		grp := docs.Group("/rental-bills")
		RegisterDocumentRoutes(grp, h, g, anyRole, salesRoles)
		grp.POST("/:id/issue", g.roles(salesRoles...), h.Issue)
		grp.POST("/:id/cancel", g.roles(salesRoles...), h.Cancel)
		grp.POST("/:id/mark-paid", g.roles(salesRoles...), h.MarkPaid)
	}

	// --- STOCK DOCUMENTS ---
	RegisterDocumentRoutes(docs.Group("/stock-adjustments"),
		handlers.NewStockAdjustmentHandler(base, c.StockAdjustments), g, anyRole, stockRoles)
	RegisterDocumentRoutes(docs.Group("/stock-transfers"),
		handlers.NewStockTransferHandler(base, c.StockTransfers), g, anyRole, stockRoles)
	RegisterDocumentRoutes(docs.Group("/write-offs"),
		handlers.NewWriteOffHandler(base, c.WriteOffs), g, anyRole, stockRoles)

	// --- PURCHASE BILLS ---
	{
		h := handlers.NewPurchaseBillHandler(base, c.PurchaseBills)
		grp := docs.Group("/purchase-bills")
		RegisterDocumentRoutes(grp, h, g, anyRole, stockRoles)
		grp.POST("/:id/payments", g.roles(adminOnly...), h.RecordPayment)
	}
}

// registerFinanceRoutes registers ledger endpoints.
func registerFinanceRoutes(rg *gin.RouterGroup, c *app.Container, base *handlers.BaseHandler, g guard) {
	fin := rg.Group("/finance")

	accounts := handlers.NewAccountHandler(base, c.Ledger)
	accGroup := fin.Group("/accounts")
	RegisterCatalogRoutes(accGroup, accounts, g, salesRoles, adminOnly)
	accGroup.GET("/:id/balance", g.roles(salesRoles...), accounts.Balance)

	RegisterCatalogRoutes(fin.Group("/categories"), handlers.NewCategoryHandler(base, c.Ledger), g, salesRoles, adminOnly)

	ledger := handlers.NewLedgerHandler(base, c.Ledger)
	fin.GET("/entries", g.roles(salesRoles...), ledger.ListEntries)
	fin.POST("/entries", g.roles(adminOnly...), ledger.CreateEntry)
}
