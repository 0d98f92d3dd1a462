package ui

import (
	"bytes"
	"net/http"
)

// renderTemplate executes a template into a buffer so a failure never sends
// a half-written page
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		a.logger.Error("Template error for %s: %v (data %T)", templateName, err, data)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Error writing template response: %v", err)
	}
}
