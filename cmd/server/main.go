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

	"github.com/notamil/notamil-api/internal/api"
	"github.com/notamil/notamil-api/internal/config"
	"github.com/notamil/notamil-api/internal/core"
	"github.com/notamil/notamil-api/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize grading client
	grader, err := core.NewGeminiGrader(
		context.Background(),
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GraderModel,
		config.AppConfig.GraderTimeout,
	)
	if err != nil {
		log.Fatalf("Failed to initialize grader: %v", err)
	}
	defer grader.Close()

	// Initialize services
	correctionService := core.NewCorrectionService(dbStore, grader)
	analyticsService := core.NewAnalyticsService(dbStore)
	achievementService := core.NewAchievementService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, correctionService, analyticsService, achievementService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Grading calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
