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

	"github.com/gin-gonic/gin"

	"fittrack/internal/config"
	"fittrack/internal/handlers"
	"fittrack/internal/middleware"
	mongorepo "fittrack/internal/repositories/mongodb"
	"fittrack/internal/services"
	"fittrack/internal/workers"
	"fittrack/pkg/cache"
	"fittrack/pkg/database"
	"fittrack/pkg/geometry"
	"fittrack/pkg/logger"
	"fittrack/pkg/maps"
	"fittrack/pkg/queue"
	"fittrack/pkg/websocket"
	"fittrack/routes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// MongoDB
	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	if err := database.NewMigrator(mongoDB.Database).Up(); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// RabbitMQ
	rabbit, err := queue.NewRabbitMQ(queue.RabbitMQConfig{
		Host:     cfg.Queue.Host,
		Port:     cfg.Queue.Port,
		User:     cfg.Queue.User,
		Password: cfg.Queue.Password,
		VHost:    cfg.Queue.VHost,
	}, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer rabbit.Close()

	geocoder, err := maps.NewGoogleGeocoder(cfg.Maps.GoogleMaps.APIKey)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize geocoder")
	}

	// Repositories
	activityRepo := mongorepo.NewActivityRepository(mongoDB.Database)
	segmentRepo := mongorepo.NewSegmentRepository(mongoDB.Database)
	effortRepo := mongorepo.NewEffortRepository(mongoDB.Database)
	userRepo := mongorepo.NewUserRepository(mongoDB.Database)

	// Services
	engine := geometry.NewPlanarEngineWithTolerance(cfg.Matcher.OverlapToleranceMeters)
	wsHandler := websocket.NewHandler(websocket.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	})

	trackingLocker := services.NewRedisLocker(redisCache, cfg.Tracking.LockTTL, cfg.Tracking.LockRetryInterval)
	segmentLocker := services.NewRedisLocker(redisCache, cfg.Matcher.SegmentLockTTL, cfg.Tracking.LockRetryInterval)

	trackingService := services.NewTrackingService(redisCache, trackingLocker, activityRepo, rabbit, wsHandler, cfg.Tracking, appLogger)
	matcherService := services.NewSegmentMatcherService(activityRepo, segmentRepo, effortRepo, engine, segmentLocker, cfg.Matcher, appLogger)
	geoService := services.NewGeoQueryService(activityRepo, segmentRepo, engine, appLogger)
	segmentService := services.NewSegmentService(segmentRepo, effortRepo, userRepo, engine, geocoder, appLogger)
	activityService := services.NewActivityService(activityRepo, rabbit, appLogger)
	statsService := services.NewStatisticsService(activityRepo, appLogger)

	// Background worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go workers.NewEffortWorker(rabbit, matcherService, cfg.Matcher, appLogger).Run(workerCtx)

	// HTTP surface
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxy configuration")
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.RateLimitMiddleware(redisCache, cfg.Security.RateLimitPerMinute))

	auth := middleware.AuthRequired(cfg.Security.JWTSecret)

	trackingHandler := handlers.NewTrackingHandler(trackingService)
	activityHandler := handlers.NewActivityHandler(activityService, statsService)
	segmentHandler := handlers.NewSegmentHandler(segmentService)
	geoHandler := handlers.NewGeoHandler(geoService)

	v1 := router.Group("/api/v1")
	{
		routes.SetupTrackingRoutes(v1, trackingHandler, wsHandler, auth)
		routes.SetupActivityRoutes(v1, activityHandler, auth)
		routes.SetupSegmentRoutes(v1, segmentHandler, auth)
		routes.SetupGeoRoutes(v1, geoHandler, auth)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		health := gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"queue":   rabbit.IsAlive(),
		}
		if err := mongoDB.Ping(); err != nil {
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("forced shutdown")
	}
}
