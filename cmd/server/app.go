package main

import (
	"net/http"

	"github.com/diewo77/go-devis/internal/handlers"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/diewo77/go-devis/internal/preview"
	"github.com/diewo77/go-devis/internal/services"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	document *handlers.DocumentHandler
	preview  *handlers.PreviewHandler
}

// NewApp creates a new application with all routes configured.
func NewApp(store *services.Store, previewer *preview.Previewer, gen pdf.Generator, log *logger.Logger) *App {
	app := &App{
		mux:      http.NewServeMux(),
		document: handlers.NewDocumentHandler(store, gen, log),
		preview:  handlers.NewPreviewHandler(previewer),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	dh := a.document

	// Document
	a.mux.HandleFunc("GET /document", dh.Get)
	a.mux.HandleFunc("POST /document", dh.Update)
	a.mux.HandleFunc("POST /document/toggle", dh.Toggle)
	a.mux.HandleFunc("POST /document/reset", dh.Reset)

	// Lines
	a.mux.HandleFunc("POST /document/lines", dh.AddLine)
	a.mux.HandleFunc("POST /document/lines/{id}", dh.UpdateLine)
	a.mux.HandleFunc("POST /document/lines/{id}/delete", dh.RemoveLine)

	// Import / export
	a.mux.HandleFunc("GET /document/export.json", dh.ExportJSON)
	a.mux.HandleFunc("POST /document/import", dh.Import)
	a.mux.HandleFunc("GET /document/export.pdf", dh.ExportPDF)
	a.mux.HandleFunc("GET /document/export.xlsx", dh.ExportXLSX)

	// Preview
	ph := a.preview
	a.mux.HandleFunc("GET /preview", ph.Show)
	a.mux.HandleFunc("GET /preview/status", ph.Status)
	a.mux.HandleFunc("POST /preview/retry", ph.Retry)

	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
