package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/aris-backend/internal/config"
	"github.com/localnerve/aris-backend/internal/database"
	"github.com/localnerve/aris-backend/internal/handlers"
	"github.com/localnerve/aris-backend/internal/services"

	_ "github.com/localnerve/aris-backend/docs/api" // Swagger docs
)

// @title Aris API
// @version 1.0.0
// @description Manuscript management backend for the Aris platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/aris-backend
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		config.DefaultLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.NewLogger("aris")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database, waiting for it to come up
	db, err := database.ConnectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// Bring the schema to the configured revision
	revision := cfg.Revision()
	if err := database.Migrate(db, database.TargetFor(revision), log.Named("migrate")); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	issuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, cfg.JWTRefreshTTL)

	var renderer services.Renderer
	if r := services.NewHTTPRenderer(cfg.RenderURL, cfg.RenderTimeout); r != nil {
		renderer = r
	} else {
		log.Warn("RENDER_URL is not set, rendered content will be unavailable")
	}
	render := services.NewRenderService(renderer, log)

	// Create Fiber app
	app := handlers.NewApp()

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("aris")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Issuer:   issuer,
		Render:   render,
		Revision: revision,
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	// Start server
	log.Info("starting server", "port", cfg.Port, "revision", revision)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
