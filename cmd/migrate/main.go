package main

import (
	"context"
	"io/fs"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"godoor/adapters/db/postgres/migrations"
	"godoor/internal"
	"godoor/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <up|down|status>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	// Connect to database
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var files fs.FS
	if appConfig.Database.MigrationsPath != "" {
		files = os.DirFS(appConfig.Database.MigrationsPath)
		log.Printf("Using migrations from %s", appConfig.Database.MigrationsPath)
	}
	migrator := migrations.NewMigrator(db.DB, files, logger)

	ctx := context.Background()
	switch os.Args[1] {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Printf("Migration complete: %d applied", len(applied))

	case "down":
		version, err := migrator.Down(ctx)
		if err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Printf("Rolled back %s", version)

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			log.Printf("%s_%s: %s", s.Version, s.Name, state)
		}

	default:
		log.Fatalf("Unknown command %q, expected up, down or status", os.Args[1])
	}
}
