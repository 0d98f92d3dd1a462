package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"godoor/domain/door"
	"godoor/internal"
	"godoor/internal/report"
	"godoor/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App is the read-only report browser
type App struct {
	router    *chi.Mux
	reader    ports.AnalysisReader
	templates *template.Template
	alpha     float64
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port  string
	Alpha float64
}

// NewApp creates the report browser over reader
func NewApp(config Config, reader ports.AnalysisReader, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Alpha <= 0 {
		config.Alpha = report.DefaultAlpha
	}

	funcMap := template.FuncMap{
		"favours": func(w door.WinRatio) string {
			switch w.Favors() {
			case 1:
				return "favours-treatment"
			case -1:
				return "favours-control"
			default:
				return ""
			}
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		reader:    reader,
		templates: templates,
		alpha:     config.Alpha,
		logger:    logger.With("ui"),
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/analyses/{id}", a.handleAnalysis)
	a.router.Get("/analyses/{id}/report.txt", a.handleReportText)
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Server returns an http.Server listening on config.Port
func (a *App) Server(config Config) *http.Server {
	port := config.Port
	if port == "" {
		port = "8081"
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
