// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"storeroom/internal/core/numerator"
	"storeroom/internal/domain/audit"
	"storeroom/internal/domain/catalogs/category"
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/internal/domain/documents/asn"
	"storeroom/internal/domain/documents/exportdoc"
	"storeroom/internal/domain/documents/importdoc"
	"storeroom/internal/domain/documents/purchase"
	"storeroom/internal/domain/documents/returndoc"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/reports"
	"storeroom/internal/infrastructure/http/v1/handlers"
	"storeroom/internal/infrastructure/http/v1/middleware"
	"storeroom/internal/infrastructure/storage/postgres"
	"storeroom/internal/infrastructure/storage/postgres/catalog_repo"
	"storeroom/internal/infrastructure/storage/postgres/document_repo"
	"storeroom/internal/infrastructure/storage/postgres/ledger_repo"
	"storeroom/internal/infrastructure/storage/postgres/report_repo"
	"storeroom/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (used by health checks).
	Pool *postgres.Pool

	// TxManager runs repository operations and transactions.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// TokenParser validates bearer tokens on protected routes.
	TokenParser middleware.TokenParser

	// Numerator generates document numbers.
	Numerator numerator.Generator

	// Audit records document changes. Nil disables auditing.
	Audit audit.Recorder
}

// services holds the constructed domain services. Documents cross-reference
// each other (imports consume notices, notices track orders, returns tie back
// to exports), so everything is built in one place.
type services struct {
	category *category.Service
	supplier *supplier.Service
	stock    *ledger.Service
	imports  *importdoc.Service
	exports  *exportdoc.Service
	returns  *returndoc.Service
	orders   *purchase.Service
	notices  *asn.Service
	reports  *reports.Service
}

func buildServices(cfg RouterConfig) *services {
	categoryRepo := catalog_repo.NewCategoryRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierRepo(cfg.TxManager)
	stockRepo := ledger_repo.NewStockLotRepo(cfg.TxManager)
	importRepo := document_repo.NewImportRepo(cfg.TxManager)
	exportRepo := document_repo.NewExportRepo(cfg.TxManager)
	returnRepo := document_repo.NewReturnRepo(cfg.TxManager)
	orderRepo := document_repo.NewPurchaseOrderRepo(cfg.TxManager)
	asnRepo := document_repo.NewASNRepo(cfg.TxManager)
	reportRepo := report_repo.NewReportRepo(cfg.TxManager)

	categoryService := category.NewService(categoryRepo, cfg.Numerator, cfg.TxManager)
	supplierService := supplier.NewService(supplierRepo, cfg.Numerator, cfg.TxManager)
	stockService := ledger.NewService(stockRepo, cfg.TxManager)

	exportService := exportdoc.NewService(exportRepo, stockService, cfg.Numerator, cfg.TxManager, cfg.Audit)
	orderService := purchase.NewService(orderRepo, supplierService, asnRepo, cfg.Numerator, cfg.TxManager, cfg.Audit)
	asnService := asn.NewService(asnRepo, orderService, importRepo, cfg.Numerator, cfg.TxManager, cfg.Audit)
	importService := importdoc.NewService(importRepo, stockService, asnService, supplierService, cfg.Numerator, cfg.TxManager, cfg.Audit)
	returnService := returndoc.NewService(returnRepo, stockService, exportService, cfg.Numerator, cfg.TxManager, cfg.Audit)

	return &services{
		category: categoryService,
		supplier: supplierService,
		stock:    stockService,
		imports:  importService,
		exports:  exportService,
		returns:  returnService,
		orders:   orderService,
		notices:  asnService,
		reports:  reports.NewService(reportRepo),
	}
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	svcs := buildServices(cfg)

	// API v1 - all routes require a valid token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.TokenParser))
	{
		registerCatalogRoutes(v1, svcs)
		registerDocumentRoutes(v1, svcs)
		registerStockRoutes(v1, svcs)
		registerReportRoutes(v1, svcs)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, svcs *services) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- CATEGORIES ---
	{
		handler := handlers.NewCategoryHandler(baseHandler, svcs.category)
		RegisterCatalogRoutes(catalogs.Group("/categories"), handler)
	}

	// --- SUPPLIERS ---
	{
		handler := handlers.NewSupplierHandler(baseHandler, svcs.supplier)
		suppliers := catalogs.Group("/suppliers")
		RegisterCatalogRoutes(suppliers, handler)
		suppliers.GET("/:id/products", handler.ListProducts)

		// Product lookup by its own id, independent of the owning supplier.
		catalogs.GET("/supplier-products/:id", handler.GetProduct)
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, svcs *services) {
	docsGroup := rg.Group("/document")
	baseHandler := handlers.NewBaseHandler()

	// --- IMPORTS (goods receipts) ---
	{
		handler := handlers.NewImportHandler(baseHandler, svcs.imports)
		RegisterDocumentRoutes(docsGroup.Group("/imports"), handler)
	}

	// --- EXPORTS (goods issues) ---
	{
		handler := handlers.NewExportHandler(baseHandler, svcs.exports)
		RegisterDocumentRoutes(docsGroup.Group("/exports"), handler)
	}

	// --- RETURNS ---
	{
		handler := handlers.NewReturnHandler(baseHandler, svcs.returns)
		returns := docsGroup.Group("/returns")
		RegisterDocumentRoutes(returns, handler)
		returns.GET("/remaining/:lineId", handler.RemainingReturnable)
	}

	// --- PURCHASE ORDERS ---
	{
		handler := handlers.NewPurchaseOrderHandler(baseHandler, svcs.orders)
		orders := docsGroup.Group("/purchase-orders")
		RegisterDocumentRoutes(orders, handler)
		orders.POST("/:id/status", handler.UpdateStatus)
		orders.GET("/:id/remaining", handler.Remaining)
	}

	// --- SHIPMENT NOTICES ---
	{
		handler := handlers.NewASNHandler(baseHandler, svcs.notices)
		notices := docsGroup.Group("/shipment-notices")
		RegisterDocumentRoutes(notices, handler)
		notices.GET("/available", handler.ListAvailable)
		notices.POST("/:id/delivered", handler.MarkDelivered)
		notices.POST("/:id/not-delivered", handler.MarkNotDelivered)
	}
}

// registerStockRoutes registers stock ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewStockHandler(baseHandler, svcs.stock)

	stockGroup := rg.Group("/stock")
	stockGroup.GET("/lots", handler.List)
	stockGroup.GET("/lots/:id", handler.Get)
	stockGroup.GET("/availability/:productId", handler.GetProductAvailability)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, svcs *services) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewReportsHandler(baseHandler, svcs.reports)

	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/stock-summary", handler.GetStockSummary)
	reportsGroup.GET("/expiry", handler.GetExpiryReport)
	reportsGroup.GET("/revenue", handler.GetRevenueReport)
	reportsGroup.GET("/top-products", handler.GetTopProducts)
	reportsGroup.GET("/supplier-history/:supplierId", handler.GetSupplierHistory)
}
