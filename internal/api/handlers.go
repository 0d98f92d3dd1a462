package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"godoor/app"
	"godoor/domain/core"
	"godoor/domain/door"
	"godoor/internal"
	"godoor/internal/errors"
	"godoor/internal/report"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AnalysisHandler serves the DOOR analysis endpoints
type AnalysisHandler struct {
	service    *app.AnalysisService
	comparator *door.Comparator
	alpha      float64
	logger     *internal.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *app.AnalysisService, comparator *door.Comparator, alpha float64, logger *internal.Logger) *AnalysisHandler {
	if comparator == nil {
		comparator = door.NewComparator()
	}
	if alpha <= 0 {
		alpha = report.DefaultAlpha
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisHandler{
		service:    service,
		comparator: comparator,
		alpha:      alpha,
		logger:     logger.With("api"),
	}
}

type recordRequest struct {
	PatientID string `json:"patient_id"`
	Arm       string `json:"arm" binding:"required"`
	Outcome   string `json:"outcome" binding:"required"`
}

type analysisRequest struct {
	Hierarchy    []string        `json:"hierarchy" binding:"required"`
	TreatmentArm string          `json:"treatment_arm" binding:"required"`
	ControlArm   string          `json:"control_arm" binding:"required"`
	Records      []recordRequest `json:"records" binding:"required,dive"`
}

type compareRequest struct {
	Treatment []int `json:"treatment"`
	Control   []int `json:"control"`
}

type hierarchyRequest struct {
	Outcomes []string `json:"outcomes" binding:"required"`
	Labels   []string `json:"labels"`
}

// CreateAnalysis runs and stores an analysis over posted patient records
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput("invalid analysis request: "+err.Error()))
		return
	}

	hierarchy, err := door.NewHierarchy(req.Hierarchy)
	if err != nil {
		h.respondError(c, err)
		return
	}

	records := make([]door.PatientRecord, len(req.Records))
	for i, r := range req.Records {
		id := r.PatientID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		records[i] = door.PatientRecord{PatientID: id, Arm: r.Arm, Outcome: r.Outcome}
	}

	analysis, err := h.service.Run(c.Request.Context(), app.AnalysisRequest{
		Hierarchy:    hierarchy,
		Records:      records,
		TreatmentArm: req.TreatmentArm,
		ControlArm:   req.ControlArm,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/analyses/"+analysis.ID.String())
	c.JSON(http.StatusCreated, analysis)
}

// Compare returns the result for two rank vectors without storing anything
func (h *AnalysisHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	result, err := h.comparator.CompareContext(c.Request.Context(), req.Treatment, req.Control)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAnalyses returns stored analyses, newest first
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(c, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	analyses, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses, "count": len(analyses)})
}

// GetAnalysis returns one stored analysis
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	analysis, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis removes one stored analysis
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	id, err := core.ParseAnalysisID(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReport renders a stored analysis as text, markdown or html
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	analysis, ok := h.load(c)
	if !ok {
		return
	}

	switch format := c.DefaultQuery("format", "text"); format {
	case "text":
		c.String(http.StatusOK, report.Text(analysis, h.alpha))
	case "markdown":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(analysis, h.alpha)))
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(analysis, h.alpha))
	default:
		h.respondError(c, errors.InvalidInput("format must be text, markdown or html, got "+strconv.Quote(format)))
	}
}

// ValidateHierarchy checks a hierarchy and, optionally, labels against it
func (h *AnalysisHandler) ValidateHierarchy(c *gin.Context) {
	var req hierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	hierarchy, err := door.NewHierarchy(req.Outcomes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := hierarchy.Validate(req.Labels); err != nil {
		h.respondError(c, err)
		return
	}

	ranks := make(map[string]int, hierarchy.Len())
	for i, label := range hierarchy.Labels() {
		ranks[label] = i + 1
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "categories": hierarchy.Len(), "ranks": ranks})
}

// Health reports liveness
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AnalysisHandler) load(c *gin.Context) (*door.Analysis, bool) {
	id, err := core.ParseAnalysisID(c.Param("id"))
	if err != nil {
		h.respondError(c, errors.InvalidInput(err.Error()))
		return nil, false
	}
	analysis, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return analysis, true
}

// respondError writes {"code", "error"} with the status for the code, plus
// "labels" when outcomes were missing from the hierarchy
func (h *AnalysisHandler) respondError(c *gin.Context, err error) {
	appErr := errors.Classify(err)
	status := errors.HTTPStatus(appErr.Code)

	body := gin.H{"code": appErr.Code, "error": err.Error()}
	var unknown *door.UnknownOutcomeError
	if stderrors.As(err, &unknown) {
		body["labels"] = unknown.Labels
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, body)
}
