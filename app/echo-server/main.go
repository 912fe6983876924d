package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptiveCreative/app/echo-server/router"
	"adaptiveCreative/business/batch"
	"adaptiveCreative/business/element"
	"adaptiveCreative/business/interaction"
	"adaptiveCreative/business/reward"
	"adaptiveCreative/business/scoring"
	"adaptiveCreative/business/transfer"
	"adaptiveCreative/business/weights"
	"adaptiveCreative/business/whitespace"
	"adaptiveCreative/internal/middleware"
	psqlRepo "adaptiveCreative/internal/repository/postgres"
	redisRepo "adaptiveCreative/internal/repository/redis"
	"adaptiveCreative/internal/rest"
	"adaptiveCreative/pkg/config"
	"adaptiveCreative/pkg/database"
	redisClient "adaptiveCreative/pkg/database/redis"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Adaptive Creative Engine", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := psqlRepo.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected successfully")

	// Redis is optional: without it whitespace is recomputed on every read
	// and batch exclusion is process-local.
	var (
		rdb    *goredis.Client
		cache  whitespace.Cache
		locker batch.Locker
	)
	if cfg.Redis.Enabled {
		rdb, err = redisClient.Connect(context.Background(), cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without it", "error", err)
		} else {
			cache = redisRepo.NewWhitespaceCache(rdb)
			locker = redisRepo.NewBrandLocker(rdb)
			logger.Info("Redis connected successfully")
		}
	}

	metrics.Init()

	// Init repo
	perfRepo := psqlRepo.NewPerformanceRepository(db)
	rewardRepo := psqlRepo.NewRewardRepository(db)
	elementRepo := psqlRepo.NewElementRepository(db)
	observationRepo := psqlRepo.NewObservationRepository(db)
	weightRepo := psqlRepo.NewWeightRepository(db)
	interactionRepo := psqlRepo.NewInteractionRepository(db)
	transferRepo := psqlRepo.NewTransferRepository(db)
	settingsRepo := psqlRepo.NewSettingsRepository(db)

	// Init service
	engine := cfg.Engine

	elementModel := element.NewModel(elementRepo)

	rewardCfg := reward.DefaultConfig()
	rewardCfg.BaselineWindow = engine.BaselineWindow
	rewardService := reward.NewRewardService(perfRepo, rewardRepo, elementModel, observationRepo, settingsRepo, rewardCfg)

	weightCfg := weights.DefaultConfig()
	weightCfg.RidgeLambda = engine.RidgeLambda
	learner := weights.NewLearner(weightRepo, observationRepo, weightCfg)

	scoringService := scoring.NewService(learner, observationRepo)

	interactionCfg := interaction.DefaultConfig()
	interactionCfg.BootstrapIterations = engine.BootstrapIterations
	interactionCfg.Budget = engine.BootstrapBudget
	interactionCfg.MinCoOccurrence = engine.MinCoOccurrence
	interactionCfg.TopSurfaced = engine.TopInteractions
	detector := interaction.NewDetector(rewardRepo, elementModel, interactionRepo, interactionCfg)

	identifier := whitespace.NewIdentifier(elementModel, interactionRepo, perfRepo, cache, engine.BatchInterval)

	transferCfg := transfer.DefaultConfig()
	transferCfg.MinSourceAds = engine.TransferMinAds
	transferCfg.Shrink = engine.TransferShrink
	transferService := transfer.NewService(rewardRepo, elementRepo, settingsRepo, transferRepo, transferCfg)

	batchCfg := batch.DefaultConfig()
	batchCfg.Parallelism = engine.BatchParallelism
	batchCfg.LockTTL = engine.LockTTL
	runner := batch.NewRunner(learner, detector, identifier, rewardRepo, locker, batchCfg)
	scheduler := batch.NewScheduler(runner, engine.BatchInterval)

	// Init handler
	performanceHandler := rest.NewPerformanceHandler(rewardService)
	templateHandler := rest.NewTemplateHandler(scoringService)
	insightHandler := rest.NewInsightHandler(elementModel, learner, detector, identifier)
	transferHandler := rest.NewTransferHandler(transferService)
	adminHandler := rest.NewAdminHandler(runner, settingsRepo)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(middleware.RequestMetrics())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupPerformanceRoutes(api, performanceHandler)
	router.SetupTemplateRoutes(api, templateHandler)
	router.SetupInsightRoutes(api, insightHandler)
	router.SetupTransferRoutes(api, transferHandler)
	router.SetupAdminRoutes(api, adminHandler, performanceHandler)

	scheduler.Start(context.Background())

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()

	if err := redisClient.Close(rdb); err != nil {
		logger.Warn("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
