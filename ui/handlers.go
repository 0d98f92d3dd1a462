package ui

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"godoor/domain/core"
	"godoor/domain/door"
	"godoor/internal/report"
)

const indexLimit = 100

type indexPage struct {
	Title    string
	Analyses []*door.Analysis
}

type analysisPage struct {
	Title    string
	Analysis *door.Analysis
	Report   template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	analyses, err := a.reader.List(r.Context(), indexLimit)
	if err != nil {
		a.logger.Error("Failed to list analyses: %v", err)
		http.Error(w, "failed to list analyses", http.StatusInternalServerError)
		return
	}
	a.renderTemplate(w, "index", indexPage{Title: "Analyses", Analyses: analyses})
}

func (a *App) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.load(w, r)
	if !ok {
		return
	}
	a.renderTemplate(w, "analysis", analysisPage{
		Title:    analysis.TreatmentArm + " vs " + analysis.ControlArm,
		Analysis: analysis,
		// raw HTML in labels is dropped by the renderer
		Report: template.HTML(report.HTML(analysis, a.alpha)),
	})
}

func (a *App) handleReportText(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(report.Text(analysis, a.alpha)))
}

func (a *App) load(w http.ResponseWriter, r *http.Request) (*door.Analysis, bool) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	analysis, err := a.reader.Get(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			http.NotFound(w, r)
			return nil, false
		}
		a.logger.Error("Failed to load analysis %s: %v", id, err)
		http.Error(w, "failed to load analysis", http.StatusInternalServerError)
		return nil, false
	}
	return analysis, true
}
