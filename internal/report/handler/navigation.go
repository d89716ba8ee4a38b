package handler

import (
	"net/http"

	"github.com/taxiwatch/taxiwatch-backend/internal/navigation"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/workflow"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// NavigateRequest selects a view
type NavigateRequest struct {
	View string `json:"view" validate:"required,oneof=form list settings"`
}

// NavigationResponse reports the current view
type NavigationResponse struct {
	View navigation.View `json:"view"`
}

// NavigationHandler handles view switching
type NavigationHandler struct {
	nav      *navigation.Navigator
	workflow *workflow.Workflow
	logger   *logger.Logger
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(nav *navigation.Navigator, wf *workflow.Workflow, log *logger.Logger) *NavigationHandler {
	return &NavigationHandler{
		nav:      nav,
		workflow: wf,
		logger:   log,
	}
}

// Get returns the current view
// GET /navigation
func (h *NavigationHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, NavigationResponse{View: h.nav.View()})
}

// Navigate switches view. Navigating clears any error left in the workflow.
// POST /navigation
func (h *NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(r.Context(), req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	target, err := navigation.ParseView(req.View)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest(err.Error()))
		return
	}

	h.workflow.ClearError()
	view := h.nav.Navigate(target)
	if view == navigation.ViewSettings && target != navigation.ViewSettings {
		h.logger.Info().Msg("settings opened by tap sequence")
	}

	httputil.JSON(w, http.StatusOK, NavigationResponse{View: view})
}
