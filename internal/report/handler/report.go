package handler

import (
	"net/http"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// ReportLister reads the watchlist, most recent first
type ReportLister interface {
	All() []domain.StoredReport
}

// ReportHandler serves the watchlist
type ReportHandler struct {
	reports ReportLister
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportLister, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  log,
	}
}

// List returns every stored report
// GET /reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.reports.All())
}
