package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"godoor/internal"
	"godoor/internal/config"
	"godoor/internal/container"
	"godoor/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	appContainer, err := container.Open(context.Background(), appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())
	if appContainer.DB == nil {
		logger.Warn("Browsing an empty in-memory store; set DATABASE_URL to browse stored analyses")
	}

	uiConfig := ui.Config{Port: appConfig.UI.Port, Alpha: appConfig.Analysis.Alpha}
	app, err := ui.NewApp(uiConfig, appContainer.AnalysisService, logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	logger.Info("Starting DOOR report browser on http://localhost:%s", appConfig.UI.Port)
	log.Fatal(app.Server(uiConfig).ListenAndServe())
}
