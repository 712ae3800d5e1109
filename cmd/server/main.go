package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"shelterstore/internal/config"
	"shelterstore/internal/database"
	"shelterstore/internal/handlers"
	"shelterstore/internal/metrics"
	"shelterstore/internal/repository"
)

func main() {
	log := logrus.New()

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	cfg := config.Load()
	if cfg.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.WithField("port", cfg.Port).Info("starting shelterstore server")

	// Connect to MongoDB. A failed connection leaves the repository
	// disconnected: the server still starts, every data operation degrades
	// to its defined negative result, and /health reports the state.
	var store repository.Store
	mongoDB, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to connect to MongoDB, continuing disconnected")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		mongoDB.EnsureIndexes(ctx)
		if cfg.ApplyValidator {
			mongoDB.ApplyValidator(ctx)
		}
		cancel()
		store = repository.NewMongoStore(mongoDB.Collection())
	}

	repo := repository.New(store, log)
	repo.SetMetrics(metrics.New(prometheus.DefaultRegisterer))

	app := fiber.New(fiber.Config{
		AppName:      "shelterstore v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	promMiddleware := fiberprometheus.New("shelterstore")
	promMiddleware.RegisterAt(app, "/metrics")
	app.Use(promMiddleware.Middleware)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	animalHandler := handlers.NewAnimalHandler(repo)
	var pinger handlers.Pinger
	if mongoDB != nil {
		pinger = mongoDB
	}
	healthHandler := handlers.NewHealthHandler(repo, pinger)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Get("/animals", animalHandler.List)
	api.Post("/animals", animalHandler.Create)
	api.Put("/animals", animalHandler.Update)
	api.Delete("/animals", animalHandler.Delete)
	api.Get("/animals/breeds/top", animalHandler.TopBreeds)
	api.Get("/animals/near", animalHandler.Near)
	api.Post("/cache/clear", animalHandler.ClearCache)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server shutdown error")
		}
		if mongoDB != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Close(ctx); err != nil {
				log.WithError(err).Error("error closing MongoDB connection")
			}
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
