package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pharmacy-pos/internal/domain"
	cartsvc "pharmacy-pos/internal/service/cart"
	categorysvc "pharmacy-pos/internal/service/category"
	dashboardsvc "pharmacy-pos/internal/service/dashboard"
	notificationsvc "pharmacy-pos/internal/service/notification"
	productsvc "pharmacy-pos/internal/service/product"
	salesvc "pharmacy-pos/internal/service/sale"
	suppliersvc "pharmacy-pos/internal/service/supplier"
)

type productService interface {
	List(ctx context.Context, in productsvc.ListInput) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	LookupCode(ctx context.Context, code string) (*domain.Product, error)
	LowStock(ctx context.Context, limit int) ([]domain.Product, error)
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch productsvc.Patch) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, productID, performedBy int64, in productsvc.AdjustInput) (*domain.StockAdjustment, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, in categorysvc.Input) (*domain.Category, error)
	Update(ctx context.Context, id int64, in categorysvc.Input) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type supplierService interface {
	List(ctx context.Context, skip, limit int) ([]domain.Supplier, error)
	Get(ctx context.Context, id int64) (*domain.Supplier, error)
	Create(ctx context.Context, in suppliersvc.Input) (*domain.Supplier, error)
	Update(ctx context.Context, id int64, in suppliersvc.Input) (*domain.Supplier, error)
	Delete(ctx context.Context, id int64) error
}

type notificationService interface {
	List(ctx context.Context, in notificationsvc.ListInput) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64, read bool) (*domain.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	CheckLowStock(ctx context.Context) (int, error)
}

type dashboardService interface {
	KPIs(ctx context.Context) (*dashboardsvc.KPIs, error)
	FastMoving(ctx context.Context, days, limit int) ([]domain.ProductSales, error)
	SalesTrend(ctx context.Context, days int) ([]domain.DailySales, error)
}

type sessionService interface {
	Open(ctx context.Context, cashierID int64) (*cartsvc.Snapshot, error)
	Get(ctx context.Context, cashierID int64, sessionID string) (*cartsvc.Snapshot, error)
	Update(ctx context.Context, cashierID int64, sessionID string, in cartsvc.UpdateInput) (*cartsvc.Snapshot, error)
	Close(ctx context.Context, cashierID int64, sessionID string) error
}

type saleService interface {
	Checkout(ctx context.Context, p domain.Principal, sessionID string, in salesvc.CheckoutInput) (*domain.Sale, error)
	List(ctx context.Context, in salesvc.ListInput) ([]domain.Sale, error)
	Get(ctx context.Context, id int64) (*domain.Sale, error)
	TodaySummary(ctx context.Context) (*domain.SaleSummary, error)
}

type tokenValidator interface {
	Validate(token string) (domain.Principal, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	ProductSvc      productService
	SessionSvc      sessionService
	SaleSvc         saleService
	CategorySvc     categoryService
	SupplierSvc     supplierService
	NotificationSvc notificationService
	DashboardSvc    dashboardService
	Tokens          tokenValidator
	CORSOrigins     []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if deps.ProductSvc == nil || deps.SessionSvc == nil || deps.SaleSvc == nil {
		return nil, errors.New("services required")
	}
	if deps.CategorySvc == nil || deps.SupplierSvc == nil || deps.NotificationSvc == nil || deps.DashboardSvc == nil {
		return nil, errors.New("back-office services required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token validator required")
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(accessLog(logger), recovery(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{
		products:      deps.ProductSvc,
		sessions:      deps.SessionSvc,
		sales:         deps.SaleSvc,
		categories:    deps.CategorySvc,
		suppliers:     deps.SupplierSvc,
		notifications: deps.NotificationSvc,
		dashboard:     deps.DashboardSvc,
		logger:        logger,
	}

	api := router.Group("/api", authMiddleware(deps.Tokens))
	cashier := api.Group("", requireRole(domain.RoleCashier))
	{
		cashier.GET("/products", h.listProducts)
		cashier.GET("/products/low-stock", h.lowStock)
		cashier.GET("/products/code/:code", h.productByCode)
		cashier.GET("/products/:id", h.getProduct)

		cashier.POST("/pos/sessions", h.openSession)
		cashier.GET("/pos/sessions/:sessionId", h.getSession)
		cashier.DELETE("/pos/sessions/:sessionId", h.closeSession)
		cashier.POST("/pos/sessions/:sessionId/actions", h.updateSession)
		cashier.POST("/pos/sessions/:sessionId/checkout", h.checkout)

		cashier.GET("/sales", h.listSales)
		cashier.GET("/sales/:id", h.getSale)

		cashier.GET("/categories", h.listCategories)
		cashier.GET("/suppliers", h.listSuppliers)
		cashier.GET("/suppliers/:id", h.getSupplier)

		cashier.GET("/notifications", h.listNotifications)
		cashier.GET("/notifications/unread-count", h.unreadCount)
		cashier.PUT("/notifications/mark-all-read", h.markAllRead)
		cashier.PUT("/notifications/:id", h.markNotification)
		cashier.DELETE("/notifications/:id", h.deleteNotification)
	}
	manager := api.Group("", requireRole(domain.RoleManager))
	{
		manager.GET("/sales/summary/today", h.todaySummary)

		manager.POST("/products", h.createProduct)
		manager.PUT("/products/:id", h.updateProduct)
		manager.DELETE("/products/:id", h.deactivateProduct)
		manager.POST("/products/:id/stock-adjustments", h.adjustStock)

		manager.POST("/categories", h.createCategory)
		manager.PUT("/categories/:id", h.updateCategory)
		manager.DELETE("/categories/:id", h.deleteCategory)

		manager.POST("/suppliers", h.createSupplier)
		manager.PUT("/suppliers/:id", h.updateSupplier)
		manager.DELETE("/suppliers/:id", h.deleteSupplier)

		manager.POST("/notifications/check-low-stock", h.checkLowStock)

		manager.GET("/dashboard/kpis", h.kpis)
		manager.GET("/dashboard/fast-moving", h.fastMoving)
		manager.GET("/dashboard/sales-trend", h.salesTrend)
	}

	return router, nil
}

type handlers struct {
	products      productService
	sessions      sessionService
	sales         saleService
	categories    categoryService
	suppliers     supplierService
	notifications notificationService
	dashboard     dashboardService
	logger        *zap.Logger
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if p, ok := principalFrom(c.Request.Context()); ok {
			fields = append(fields, zap.Int64("user_id", p.UserID))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic recovered", zap.Any("panic", err), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
