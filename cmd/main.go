package main

import (
	"advisor-service/internal/handler"
	"advisor-service/internal/middleware"
	"advisor-service/internal/store"
	"advisor-service/pkg/config"
	"advisor-service/pkg/database"
	"advisor-service/pkg/jwtutil"
	"advisor-service/pkg/logger"
	"advisor-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting advisor service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire the store and handlers
	st := store.NewGormStore(database.GetDB())
	authHandler := handler.NewAuthHandler(st)
	clientHandler := handler.NewClientHandler(st)
	noteHandler := handler.NewNoteHandler(st, st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Client management
	clients := api.Group("/clients")
	clients.GET("", clientHandler.ListClients)
	clients.POST("", clientHandler.CreateClient)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	// Meeting notes nested under clients
	notes := api.Group("/clients/:id/notes")
	notes.GET("", noteHandler.ListNotes)
	notes.POST("", noteHandler.CreateNote)
	notes.GET("/:noteId", noteHandler.GetNote)
	notes.PUT("/:noteId", noteHandler.UpdateNote)
	notes.DELETE("/:noteId", noteHandler.DeleteNote)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
