package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/api/handlers"
	rediscache "github.com/sipadu-ai/evidence-service/internal/cache/redis"
	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/internal/metrics"
	"github.com/sipadu-ai/evidence-service/internal/middleware/ratelimit"
	"github.com/sipadu-ai/evidence-service/internal/middleware/security"
	"github.com/sipadu-ai/evidence-service/internal/middleware/validation"
	"github.com/sipadu-ai/evidence-service/internal/response"
	"github.com/sipadu-ai/evidence-service/internal/selection"
	"github.com/sipadu-ai/evidence-service/internal/session"
	"github.com/sipadu-ai/evidence-service/internal/storage/sqlite"
	"github.com/sipadu-ai/evidence-service/pkg/config"
	appLogger "github.com/sipadu-ai/evidence-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SIPADU Evidence Service")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var redisClient *rediscache.Client
	if cfg.Redis.Enabled {
		redisClient, err = rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without snapshot cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	registry := response.NewRegistry(
		time.Duration(cfg.Registry.TTLMinutes)*time.Minute,
		time.Duration(cfg.Registry.PurgeMinutes)*time.Minute,
	)

	highlighter := evidence.NewHighlighter(cfg.Index.HighlightClass)

	engine := selection.NewEngine(
		registry,
		sqliteClient,
		redisClient,
		highlighter,
		time.Duration(cfg.Registry.TTLMinutes)*time.Minute,
	)

	validator := session.NewValidator(
		cfg.Sipadu.APIBase,
		time.Duration(cfg.Sipadu.TimeoutSec)*time.Second,
	)
	sessionManager := session.NewManager(validator, sqliteClient, redisClient, registry, cfg.Sipadu.DashboardURL)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.Headers())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Limits.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxSelectionLength: cfg.Limits.MaxSelectionLength,
		MaxPanelBytes:      cfg.Index.MaxPanelBytes,
		MaxPanels:          cfg.Index.MaxPanels,
		Logger:             appLogger.GetLogger(),
	}))

	responseHandler := handlers.NewResponseHandler(engine)
	selectionHandler := handlers.NewSelectionHandler(engine)
	sessionHandler := handlers.NewSessionHandler(sessionManager)
	uiHandler := handlers.NewUIHandler(cfg.Branding)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/responses", responseHandler.HandleRegister)

	api.Post("/selection", selectionHandler.HandleSelection)
	api.Get("/selection/history", selectionHandler.GetSelectionHistory)

	api.Post("/session/validate", sessionHandler.HandleValidate)
	api.Post("/session/logout", sessionHandler.HandleLogout)

	api.Get("/ui/config", uiHandler.HandleConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/selection", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
