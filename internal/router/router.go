// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/handlers"
	"github.com/fingrow/acf-backend/internal/middleware"
	"github.com/fingrow/acf-backend/internal/services"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	userService := services.NewUserService(db)
	placementService := services.NewPlacementService(db, cfg)
	commissionService := services.NewCommissionService(db, cfg)
	networkService := services.NewNetworkService(db, cfg)
	productService := services.NewProductService(db)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, placementService)
	networkHandler := handlers.NewNetworkHandler(networkService)
	orderHandler := handlers.NewOrderHandler(commissionService, userService)
	productHandler := handlers.NewProductHandler(productService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// User and placement routes
		users := v1.Group("/users")
		{
			users.POST("/signup", middleware.SignupRateLimit(), userHandler.Signup)
			users.GET("", userHandler.ListUsers)
			users.GET("/:worldId", userHandler.GetUser)
			users.PUT("/:worldId/acf-accepting", userHandler.ToggleAccepting)
			users.PUT("/:worldId/max-children", userHandler.SetMaxChildren)
			users.PUT("/:worldId/subtree-accepting", userHandler.SetSubtreeAccepting)
			users.GET("/:worldId/orders", orderHandler.ListUserOrders)
			users.GET("/:worldId/balance", orderHandler.GetBalance)
			users.GET("/:worldId/commission-summary", orderHandler.GetCommissionSummary)
		}

		// Network views
		network := v1.Group("/network")
		{
			network.GET("/candidates", networkHandler.PreviewCandidates)
			network.GET("/:worldId/tree", networkHandler.GetTree)
			network.GET("/:worldId/summary", networkHandler.GetSummary)
			network.GET("/:worldId/acf", networkHandler.GetTable)
			network.GET("/:worldId/upline", networkHandler.GetUplinePath)
		}

		// Orders and commission
		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.OrderRateLimit(), orderHandler.CreateOrder)
			orders.GET("/:id/commissions", orderHandler.GetOrder)
		}

		// Product catalog
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:code", productHandler.GetProduct)
			products.POST("", productHandler.CreateProduct)
		}
	}

	return r
}
