package main

import (
	"fmt"
	"net/http"
	"os"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptostock/internal/config"
	"cryptostock/internal/database"
	"cryptostock/internal/events"
	"cryptostock/internal/handlers"
	"cryptostock/internal/logger"
	"cryptostock/internal/middleware"
	"cryptostock/internal/services"
	"cryptostock/internal/validator"

	"gorm.io/gorm"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
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
	if appConfig.LogLevel != "" && !logger.SetLevel(appConfig.LogLevel) {
		log.Warnw("ignoring unknown LOG_LEVEL", "level", appConfig.LogLevel)
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
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Trade event publisher (no-op without brokers)
	publisher := events.NewPublisher(appConfig.KafkaBrokers, appConfig.KafkaTradesTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("closing trade publisher", "error", err)
		}
	}()

	router := newRouter(dbManager.DB(), publisher, appConfig.Env)

	log.Infof("Starting CryptoStock ledger backend on port %s (db driver %s)", appConfig.LedgerPort, dbConfig.Driver)
	return router.Run(":" + appConfig.LedgerPort)
}

// newRouter wires the ledger services and handlers onto a Gin engine.
func newRouter(db *gorm.DB, publisher events.Publisher, env string) *gin.Engine {
	// Initialize services
	auditService := services.NewAuditService(db)
	portfolioService := services.NewPortfolioService(db)
	tradeService := services.NewTradeService(db, publisher)
	walletService := services.NewWalletService(db)

	// Initialize handlers
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)
	tradeHandler := handlers.NewTradeHandler(tradeService, auditService)
	walletHandler := handlers.NewWalletHandler(walletService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginzap.RecoveryWithZap(logger.Desugared(), true))
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Protected routes
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())

	owner := middleware.RequireOwner("user")

	// Portfolio routes
	protected.GET("/portfolio/:user", owner, portfolioHandler.GetPortfolio)
	protected.POST("/portfolio/update", portfolioHandler.UpdatePortfolio)

	// Trade routes
	protected.GET("/trades/:user", owner, tradeHandler.GetTrades)
	protected.POST("/trades", tradeHandler.RecordTrade)
	protected.GET("/history/:user", owner, tradeHandler.GetHistory)

	// Wallet routes
	protected.GET("/wallet/:user", owner, walletHandler.GetWallet)
	protected.POST("/wallet/update", walletHandler.UpdateWallet)

	// Audit trail
	protected.GET("/audit/:user", owner, auditHandler.GetAuditLog)

	return router
}
