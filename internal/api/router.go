package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"godoor/internal"
)

// NewRouter wires the analysis endpoints and the event stream
func NewRouter(handler *AnalysisHandler, hub *SSEHub, logger *internal.Logger) *gin.Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger.With("http")))

	router.GET("/healthz", handler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyses", handler.CreateAnalysis)
		v1.GET("/analyses", handler.ListAnalyses)
		v1.GET("/analyses/:id", handler.GetAnalysis)
		v1.DELETE("/analyses/:id", handler.DeleteAnalysis)
		v1.GET("/analyses/:id/report", handler.GetReport)
		v1.POST("/compare", handler.Compare)
		v1.POST("/hierarchies/validate", handler.ValidateHierarchy)
		if hub != nil {
			v1.GET("/events", hub.HandleSSE)
		}
	}

	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
