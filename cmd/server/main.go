// cmd/server/main.go
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
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/database"
	"github.com/fingrow/acf-backend/internal/router"
	"github.com/fingrow/acf-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Seed the placement root and, outside production, a sample catalog
	if err := database.SeedSystemRoot(db, cfg.ACF); err != nil {
		log.Fatal("Failed to seed system root:", err)
	}
	if cfg.Environment == "development" {
		if err := database.SeedSampleProducts(db); err != nil {
			log.Fatal("Failed to seed sample products:", err)
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Periodic reconcile of child counts and levels against parent pointers
	placementService := services.NewPlacementService(db, cfg)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ACF.ReconcileSchedule, func() {
		fixed, err := placementService.ReconcileTree()
		if err != nil {
			logrus.WithError(err).Error("Tree reconcile failed")
			return
		}
		if fixed > 0 {
			logrus.WithField("fixed", fixed).Warn("Tree reconcile repaired drift")
		}
	}); err != nil {
		log.Fatal("Failed to schedule tree reconcile:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize router
	r := router.Initialize(db, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
