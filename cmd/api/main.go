package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"godoor/internal"
	"godoor/internal/api"
	"godoor/internal/config"
	"godoor/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.Open(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	hub := appContainer.EnableEvents()
	handler := api.NewAnalysisHandler(appContainer.AnalysisService, appContainer.Comparator, appConfig.Analysis.Alpha, logger)

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(handler, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting DOOR API on port %s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	// Close the hub first so open event streams return
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
