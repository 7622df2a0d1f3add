package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"cryptostock/internal/cache"
	"cryptostock/internal/config"
	"cryptostock/internal/engine"
	"cryptostock/internal/handlers"
	"cryptostock/internal/ledgerclient"
	"cryptostock/internal/logger"
	"cryptostock/internal/market"
	"cryptostock/internal/middleware"
	"cryptostock/internal/trading"
	"cryptostock/internal/validator"

	_ "cryptostock/internal/docs" // Import swagger docs
)

// @title           CryptoStock Dashboard API
// @version         1.0
// @description     Portfolio valuation and reconciliation for the simulated crypto trading dashboard: live valuations, market data, trades and wallet.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// quoteCacheEntries bounds the number of cached quotes, market pages and
// history series.
const quoteCacheEntries = 10_000

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

	validator.Register()

	// Upstream clients
	httpClient := &http.Client{Timeout: appConfig.HTTPTimeout}
	quoteCache, err := cache.New(quoteCacheEntries, appConfig.QuoteCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create quote cache: %w", err)
	}
	defer quoteCache.Close()

	marketClient := market.NewClient(appConfig.MarketAPIURL, httpClient, quoteCache)
	ledgerClient := ledgerclient.NewClient(appConfig.LedgerAPIURL, httpClient)

	// Initialize services
	valuationEngine := engine.New(ledgerClient, marketClient)
	tradingService := trading.NewService(ledgerClient, marketClient)

	// Initialize handlers
	valuationHandler := handlers.NewValuationHandler(valuationEngine, appConfig.RefreshInterval, appConfig.CORSAllowedOrigins)
	marketHandler := handlers.NewMarketHandler(marketClient, appConfig.MarketsPerPage)
	accountHandler := handlers.NewAccountHandler(ledgerClient, tradingService, valuationHandler)

	// Initialize Gin router
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginzap.RecoveryWithZap(logger.Desugared(), true))
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Protected routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	// Portfolio routes
	v1.GET("/portfolio", valuationHandler.GetPortfolio)
	v1.GET("/portfolio/stream", valuationHandler.StreamPortfolio)

	// Market routes
	v1.GET("/markets", marketHandler.GetMarkets)
	v1.GET("/markets/:id/history", marketHandler.GetHistory)

	// Account routes
	v1.GET("/wallet", accountHandler.GetWallet)
	v1.GET("/history", accountHandler.GetHistory)
	v1.POST("/trades", accountHandler.PlaceTrade)

	log.Infof("Starting CryptoStock dashboard API on port %s (ledger at %s)", appConfig.Port, appConfig.LedgerAPIURL)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
