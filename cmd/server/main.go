package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/saeid-a/CoachMarketBack/internal/config"
	"github.com/saeid-a/CoachMarketBack/internal/database"
	"github.com/saeid-a/CoachMarketBack/internal/logger"
	"github.com/saeid-a/CoachMarketBack/internal/metrics"
	"github.com/saeid-a/CoachMarketBack/internal/routes"
	sessionws "github.com/saeid-a/CoachMarketBack/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		logger.Log.Fatal("DB_URL is required")
	}
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "CoachMarketBack",
	})

	metricsManager := metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))
	hub := sessionws.NewHub(metricsManager)
	go hub.Run(ctx)

	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigin}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: logger.Log.Writer(),
	}))
	app.Use(recover.New())
	app.Use(metricsManager.Middleware())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if cfg.MetricsEnabled {
		app.Get("/metrics", metricsManager.Handler())
	}
	routes.RegisterRoutes(app, cfg, pool, hub, metricsManager)

	// 4. Start Server
	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Log.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Log.Infof("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("Server failed to start: %v", err)
	}
}
