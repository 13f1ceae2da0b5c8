// Package server assembles the HTTP router for the ledger API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "cryptoledger/internal/docs" // Import swagger docs
	"cryptoledger/internal/handlers"
	"cryptoledger/internal/lock"
	"cryptoledger/internal/middleware"
	"cryptoledger/internal/pricing"
	"cryptoledger/internal/services"
)

// Deps holds everything NewRouter wires into the handlers.
type Deps struct {
	DB     *gorm.DB
	Prices pricing.PriceSource
	Locker lock.Locker

	// APIKey protects mutating routes; empty leaves them open.
	APIKey      string
	CORSOrigins []string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with middleware, services and routes.
func NewRouter(deps Deps) *gin.Engine {
	db := deps.DB

	// Initialize services
	auditService := services.NewAuditService(db)
	clientService := services.NewClientService(db)
	ledgerService := services.NewLedgerService(db)
	transactionService := services.NewTransactionService(db, ledgerService, deps.Prices, deps.Locker)

	// Initialize handlers
	clientHandler := handlers.NewClientHandler(clientService, ledgerService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(deps.CORSOrigins))
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	router.NoRoute(middleware.NotFound)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	requireKey := middleware.APIKey(deps.APIKey)

	// Client routes
	clients := v1.Group("/clients")
	clients.GET("", clientHandler.GetClients)
	clients.GET("/:id", clientHandler.GetClientByID)
	clients.GET("/:id/balances", clientHandler.GetClientBalances)
	clients.POST("", requireKey, clientHandler.CreateClient)
	clients.PUT("/:id", requireKey, clientHandler.UpdateClient)
	clients.DELETE("/:id", requireKey, clientHandler.DeleteClient)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.POST("", requireKey, transactionHandler.CreateTransaction)
	transactions.PATCH("/:id", requireKey, transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", requireKey, transactionHandler.DeleteTransaction)

	return router
}
