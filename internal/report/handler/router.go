// Package handler exposes the report workflow, watchlist, navigation and
// settings panel over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
)

// Handlers groups the report API handlers
type Handlers struct {
	Workflow   *WorkflowHandler
	Reports    *ReportHandler
	Navigation *NavigationHandler
	Admin      *AdminHandler
}

// Mount registers the API under /api/v1. adminAuth guards the export routes.
func (h *Handlers) Mount(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httputil.ErrorLocalized(w, r, errors.NotFound("endpoint"))
		})

		r.Route("/workflow", func(r chi.Router) {
			r.Get("/", h.Workflow.Get)
			r.Post("/submit", h.Workflow.Submit)
			r.Post("/confirm", h.Workflow.Confirm)
			r.Post("/cancel", h.Workflow.Cancel)
			r.Post("/abort", h.Workflow.Abort)
			r.Post("/acknowledge", h.Workflow.Acknowledge)
		})

		r.Get("/reports", h.Reports.List)

		r.Get("/navigation", h.Navigation.Get)
		r.Post("/navigation", h.Navigation.Navigate)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/unlock", h.Admin.Unlock)
			r.Group(func(r chi.Router) {
				r.Use(adminAuth)
				r.Get("/export", h.Admin.Export)
				r.Post("/export/archive", h.Admin.Archive)
			})
		})
	})
}
