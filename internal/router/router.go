// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/handlers"
	"github.com/storefront/catalog-api/internal/i18n"
	"github.com/storefront/catalog-api/internal/middleware"
	"github.com/storefront/catalog-api/internal/services"
	"github.com/storefront/catalog-api/internal/utils"
)

const Version = "1.0.0"

// Initialize builds the engine. The returned stop function releases the
// background work the middleware started and is safe to call more than once.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, func()) {
	// Request bodies may only carry known fields
	binding.EnableDecoderDisallowUnknownFields = true

	// Initialize services
	productService := services.NewProductService(db, cfg.Catalog)
	orderService := services.NewOrderService(db)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)

	verifier := utils.NewTokenVerifier(cfg.Auth.IdentitySecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	auth := middleware.NewAuthenticator(verifier, middleware.NewSessionManager(cfg.Auth), cfg.Auth.AdminSubjects)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, Version)
	authHandler := handlers.NewAuthHandler(auth, userService)
	productHandler := handlers.NewProductHandler(productService, cfg.Catalog)
	orderHandler := handlers.NewOrderHandler(orderService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	stop := func() {}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit)
		r.Use(limiter.Middleware())
		stop = limiter.Stop
	}

	r.NoRoute(func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyRouteNotFound), nil)
	})

	// Health check
	r.GET("/health", healthHandler.Check)

	// Session routes
	session := r.Group("/auth")
	{
		session.POST("/session", authHandler.CreateSession)
		session.DELETE("/session", authHandler.DeleteSession)
		session.GET("/me", auth.AuthRequired(), authHandler.GetMe)
	}

	// Product routes
	adminOnly := auth.AdminRequired(cfg.Auth.ProtectAdmin)
	products := r.Group("/products")
	products.Use(auth.OptionalAuth(), middleware.AuditLogMiddleware(auditService, "product"))
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/trash", adminOnly, productHandler.GetTrash)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("", adminOnly, productHandler.CreateProduct)
		products.PUT("/:id", adminOnly, productHandler.UpdateProduct)
		products.DELETE("/:id", adminOnly, productHandler.DeleteProduct)
		products.PATCH("/:id/restore", adminOnly, productHandler.RestoreProduct)
		products.GET("/:id/history", adminOnly, auditHandler.GetProductHistory)
	}

	// Order routes
	orders := r.Group("/orders")
	orders.Use(auth.AuthRequired())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.GetMyOrders)
		orders.GET("/user/:userId", orderHandler.GetUserOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}

	return r, stop
}
