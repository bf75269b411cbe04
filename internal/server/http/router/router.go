package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/metrics"
	"github.com/polkiloo/agristar/internal/server/http/handlers"
	"github.com/polkiloo/agristar/internal/server/http/middleware"
)

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade   handlers.MarketFacade
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.RequestMetrics(p.Metrics))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))

	authHandler := handlers.NewAuthHandler(p.Facade)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	riderHandler := handlers.NewRiderHandler(p.Facade)
	productHandler := handlers.NewProductHandler(p.Facade)
	notificationHandler := handlers.NewNotificationHandler(p.Facade)
	mpesaHandler := handlers.NewMpesaHandler(p.Facade, p.Metrics, p.Logger)
	healthHandler := handlers.NewHealthHandler(p.Facade, p.Logger)

	engine.GET("/metrics", gin.WrapH(metrics.Handler(p.Registry)))

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	mpesa := api.Group("/mpesa")
	mpesa.POST("/callback", mpesaHandler.STKCallback)
	mpesa.POST("/b2c/result", mpesaHandler.B2CResult)
	mpesa.POST("/b2c/timeout", mpesaHandler.B2CTimeout)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(p.Facade))

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Place)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/accept", orderHandler.Accept)
	orders.POST("/:id/reject", orderHandler.Reject)
	orders.POST("/:id/pay", orderHandler.Pay)
	orders.POST("/:id/assign", orderHandler.Assign)
	orders.POST("/:id/progress", orderHandler.Progress)
	orders.POST("/:id/ready", orderHandler.Ready)
	orders.POST("/:id/confirm", orderHandler.Confirm)
	orders.POST("/:id/cancel", orderHandler.Cancel)
	orders.POST("/:id/dispute", orderHandler.Dispute)
	orders.PATCH("/:id/quantity", orderHandler.Quantity)

	authed.GET("/riders/nearby", riderHandler.Nearby)
	authed.POST("/rider/availability", riderHandler.Availability)
	authed.POST("/rider/location", riderHandler.Location)

	authed.POST("/products", productHandler.Create)
	authed.GET("/products/:id", productHandler.Get)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

	admin := authed.Group("/admin")
	admin.POST("/orders/:id/resolve", orderHandler.Resolve)
	admin.POST("/orders/:id/payout/release", orderHandler.ReleasePayout)
	admin.POST("/riders/:id/verify", riderHandler.Verify)

	return engine
}
