package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsewatch.io/sentiment-api/internal/api"
	"pulsewatch.io/sentiment-api/internal/auth"
	"pulsewatch.io/sentiment-api/internal/cache"
	"pulsewatch.io/sentiment-api/internal/config"
	"pulsewatch.io/sentiment-api/internal/core"
	"pulsewatch.io/sentiment-api/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for comment ingestion
	ingestFile := flag.String("ingest", "", "Load labeled comments from the given JSON file and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Handle comment ingestion if flag is set
	if *ingestFile != "" {
		log.Println("Starting comment ingestion process...")
		numIngested, err := dbStore.IngestCommentsFromFile(*ingestFile)
		if err != nil {
			log.Fatalf("Comment ingestion failed: %v", err)
		}
		log.Printf("Ingestion complete. Loaded %d comments. Exiting.", numIngested)
		os.Exit(0)
	}

	// Shared collaborators
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	profileCache := cache.NewMemoryCache()

	// Initialize services
	userService := core.NewUserService(dbStore, profileCache)
	sentimentService := core.NewSentimentService(dbStore)
	trendService := core.NewTrendService(dbStore)
	trackingService := core.NewTrackingService(dbStore)
	crawlService := core.NewCrawlService(dbStore, cfg.CrawlAPIURL)
	reportService := core.NewReportService(dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(tokens, userService, sentimentService, trendService, trackingService, crawlService, reportService)
	router := api.NewRouter(apiHandler, cfg.AllowedOrigins)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // on-demand crawls wait on the crawl server
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
