package main

import (
	"fmt"
	"net/http"
	"os"

	"valutatrade/internal/config"
	"valutatrade/internal/database"
	"valutatrade/internal/handlers"
	"valutatrade/internal/logger"
	"valutatrade/internal/middleware"
	"valutatrade/internal/services"
	"valutatrade/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "valutatrade/internal/docs" // Import swagger docs
)

// @title           ValutaTrade API
// @version         1.0
// @description     ValutaTrade is a personal multi-currency trading ledger: per-currency wallets with deposits, withdrawals, and buy/sell conversions against a fixed exchange-rate table.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db, appConfig.Rates)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	ratesHandler := handlers.NewRatesHandler(appConfig.Rates)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/username", authHandler.UpdateUsername)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	// Exchange rates
	protected.GET("/rates", ratesHandler.GetRates)

	// Portfolio routes
	portfolio := protected.Group("/portfolio")
	portfolio.POST("/wallets", portfolioHandler.AddCurrency)
	portfolio.GET("/wallets", portfolioHandler.GetUserWallets)
	portfolio.GET("/wallets/:code", portfolioHandler.GetWallet)
	portfolio.POST("/wallets/:code/deposit", portfolioHandler.Deposit)
	portfolio.POST("/wallets/:code/withdraw", portfolioHandler.Withdraw)
	portfolio.POST("/buy", portfolioHandler.BuyCurrency)
	portfolio.POST("/sell", portfolioHandler.SellCurrency)
	portfolio.GET("/value", portfolioHandler.GetTotalValue)

	log.Infof("Starting ValutaTrade backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
