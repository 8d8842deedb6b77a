package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ValeriyaDzh/spimex-api/internal/cache"
	"github.com/ValeriyaDzh/spimex-api/internal/config"
	"github.com/ValeriyaDzh/spimex-api/internal/database"
	"github.com/ValeriyaDzh/spimex-api/internal/ingest"
	"github.com/ValeriyaDzh/spimex-api/internal/report"
	"github.com/ValeriyaDzh/spimex-api/internal/trading"
	"github.com/ValeriyaDzh/spimex-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading results API server with graceful
// shutdown support. It wires the store, the ingestion pipeline, the response
// cache and the API routes.
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	tradingService := trading.NewService(db)

	fetcher := report.NewFetcher(cfg.ReportBaseURL, cfg.FetchTimeout)
	ingestService := ingest.NewService(fetcher, trading.NewDatabase(db), cfg.ArtifactDir)

	tradingHandlers := trading.NewGinHandlers(tradingService, ingestService)

	// The response cache is optional: when Redis is unreachable the service
	// runs without caching.
	resetterCtx, resetterCancel := context.WithCancel(context.Background())
	defer resetterCancel()

	responseCache, err := cache.New(resetterCtx, cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("Redis unavailable, running without response cache")
	} else {
		defer responseCache.Close()
		go cache.NewResetter(responseCache, cfg.CacheResetAt).Start(resetterCtx)
	}

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, tradingHandlers, responseCache)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers.
// The query endpoints pass through the Redis response cache when it is
// available; ingestion never does.
func setupRoutes(
	router *gin.Engine,
	tradingHandlers *trading.GinHandlers,
	responseCache *cache.Cache,
) {
	v1 := router.Group("/api/v1")
	{
		results := v1.Group("/trading")
		{
			results.POST("/ingest", tradingHandlers.IngestHandler())

			queries := results.Group("")
			if responseCache != nil {
				queries.Use(responseCache.Middleware())
			}
			{
				queries.GET("/last-trading-days", tradingHandlers.LastTradingDaysHandler())
				queries.GET("/trading-results", tradingHandlers.TradingResultsHandler())
				queries.GET("/dynamics", tradingHandlers.DynamicsHandler())
				queries.GET("/:id", tradingHandlers.GetResultHandler())
			}
		}
	}
}
