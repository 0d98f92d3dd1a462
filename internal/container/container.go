package container

import (
	"context"
	"fmt"

	"godoor/adapters/db/postgres/migrations"
	"godoor/adapters/memory"
	"godoor/adapters/postgres"
	"godoor/app"
	"godoor/domain/door"
	"godoor/internal"
	"godoor/internal/api"
	"godoor/internal/config"
	"godoor/internal/errors"
	"godoor/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	AnalysisRepo ports.AnalysisRepository

	// Analysis components
	Comparator      *door.Comparator
	AnalysisService *app.AnalysisService
	SSEHub          *api.SSEHub
}

// New creates a container backed by the in-memory analysis store. Call
// InitWithDatabase to switch to PostgreSQL.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		AnalysisRepo: memory.NewAnalysisRepository(),
		Comparator:   door.NewComparator(cfg.Analysis.ComparatorOptions()...),
	}
	c.initServices()

	return c, nil
}

// Open builds a container and, when DATABASE_URL is configured, connects to
// PostgreSQL and migrates it
func Open(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	c, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		c.Logger.Warn("DATABASE_URL not set, analyses are kept in memory")
		return c, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase migrates the schema and moves analysis storage to db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	applied, err := migrations.NewMigrator(db.DB, nil, c.Logger).Up(ctx)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("Applied %d migration(s): %v", len(applied), applied)
	}

	c.DB = db
	c.AnalysisRepo = postgres.NewAnalysisRepository(db)
	c.initServices()

	c.Logger.Info("Container initialized with PostgreSQL analysis store")
	return nil
}

func (c *Container) initServices() {
	c.AnalysisService = app.NewAnalysisService(c.AnalysisRepo, c.Comparator, c.Logger)
	if c.SSEHub != nil {
		c.AnalysisService.WithNotifier(api.NewSSEEventBroadcaster(c.SSEHub))
	}
}

// EnableEvents starts the SSE hub and has the analysis service publish to it
func (c *Container) EnableEvents() *api.SSEHub {
	if c.SSEHub == nil {
		c.SSEHub = api.NewSSEHub(c.Logger)
		c.AnalysisService.WithNotifier(api.NewSSEEventBroadcaster(c.SSEHub))
	}
	return c.SSEHub
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
