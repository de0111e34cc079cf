package handlers

import (
	"time"

	"storefront-svc/cache"
	"storefront-svc/middleware"
	"storefront-svc/orders"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	ServiceName   string
	Orders        *orders.Service
	Store         store.Store
	ProductCache  *cache.ProductCache
	Redis         *redis.Client
	Logger        *zap.Logger
	JWTSecret     string
	RazorpayKeyID string
	ExposeErrors  bool

	// Contact is nil when no mail transport is configured.
	Contact ContactSender

	// Requests per client IP per window; a zero limit disables the limiter.
	APIRateLimit      int
	APIRateWindow     time.Duration
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	PaymentRateLimit  int
	PaymentRateWindow time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	middleware.RegisterValidators()

	router := gin.New()
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.LoggerMiddleware(cfg.Logger))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", HealthCheck)
	router.GET("/ready", Readiness(cfg.Store))
	router.GET("/metrics", middleware.PrometheusHandler())

	apiLimiter := middleware.NewRateLimiter(cfg.Redis, "api", cfg.APIRateLimit, cfg.APIRateWindow, cfg.Logger).Middleware()
	paymentLimiter := middleware.NewRateLimiter(cfg.Redis, "payment", cfg.PaymentRateLimit, cfg.PaymentRateWindow, cfg.Logger).Middleware()
	authLimiter := middleware.NewRateLimiter(cfg.Redis, "auth", cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.Logger).Middleware()
	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)
	adminOnly := middleware.AdminOnly()

	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger, cfg.ExposeErrors)
	productHandler := NewProductHandler(cfg.Store, cfg.ProductCache, cfg.Logger, cfg.ExposeErrors)
	authHandler := NewAuthHandler(cfg.Store, cfg.JWTSecret, cfg.Logger, cfg.ExposeErrors)
	contactHandler := NewContactHandler(cfg.Contact, cfg.Logger)

	api := router.Group("/api", apiLimiter)
	api.GET("/razorpay-key", RazorpayKey(cfg.RazorpayKeyID))
	api.POST("/contact", contactHandler.SendContact)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authLimiter, authHandler.Login)
		auth.GET("/me", requireAuth, authHandler.Profile)
	}

	products := api.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("", requireAuth, adminOnly, productHandler.CreateProduct)
		products.PUT("/:id", requireAuth, adminOnly, productHandler.UpdateProduct)
		products.DELETE("/:id", requireAuth, adminOnly, productHandler.DeleteProduct)
	}

	ordersGroup := api.Group("/orders")
	{
		ordersGroup.POST("/create-razorpay-order", paymentLimiter, orderHandler.CreateRazorpayOrder)
		ordersGroup.POST("/verify-payment", paymentLimiter, orderHandler.VerifyPayment)
		ordersGroup.GET("/track/:orderId", orderHandler.TrackOrder)

		admin := ordersGroup.Group("", requireAuth, adminOnly)
		admin.GET("", orderHandler.GetOrders)
		admin.GET("/:id", orderHandler.GetOrder)
		admin.PUT("/:id/status", orderHandler.UpdateStatus)
		admin.PUT("/:id/cancel", orderHandler.CancelOrder)
		admin.DELETE("/:id", orderHandler.DeleteOrder)
	}

	router.NoRoute(NotFound)
	return router
}
