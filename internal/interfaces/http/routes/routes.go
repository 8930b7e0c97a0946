// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
	"github.com/justeunpeu/storefront-backend/internal/interfaces/http/handlers"
	"github.com/justeunpeu/storefront-backend/internal/interfaces/http/middleware"
)

// SetupRoutes wires every API route group onto the given router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	SetupAuthRoutes(rg, db, redisClient, cfg, logger)
	SetupUserRoutes(rg, db, cfg, logger)
	SetupProductRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, redisClient, cfg, logger)
	SetupCheckoutRoutes(rg, db, cfg, logger)
	SetupOrderRoutes(rg, db, cfg, logger)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg, logger)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/verify-email", authHandler.VerifyEmail)

		// Logout needs the token claims so the device cart can be cleared
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// SetupUserRoutes sets up user profile routes
func SetupUserRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	profileHandler := handlers.NewUserProfileHandler(db, cfg, logger)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(cfg))
	{
		users.GET("/profile", profileHandler.GetProfile)
		users.PUT("/profile", profileHandler.UpdateProfile)
		users.PUT("/password", profileHandler.ChangePassword)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		// /featured must be registered before /:id
		products.GET("/featured", productHandler.GetFeaturedProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// SetupCartRoutes sets up cart routes. Every endpoint works for both guest
// and authenticated requests, so auth is optional here.
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg, logger)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items", cartHandler.UpdateItem)
		cart.DELETE("/items", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.ClearCart)

		cart.GET("/pending", cartHandler.GetPendingItem)
		cart.POST("/pending", cartHandler.SetPendingItem)
		cart.POST("/pending/complete", cartHandler.CompletePendingItem)
		cart.DELETE("/pending", cartHandler.ClearPendingItem)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg, logger)

	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg))
	{
		checkout.GET("/summary", checkoutHandler.GetSummary)
		checkout.POST("/orders", checkoutHandler.CreateOrder)
		checkout.POST("/confirm", checkoutHandler.ConfirmPayment)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	orderHandler := handlers.NewOrderHandler(db, cfg, logger)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}
}
