package handler

import (
	"net/http"
	"time"

	"github.com/taxiwatch/taxiwatch-backend/internal/admin"
	"github.com/taxiwatch/taxiwatch-backend/internal/archive"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/export"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// UnlockRequest carries the settings PIN
type UnlockRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// AdminHandler handles the settings panel: unlock, export and archive
type AdminHandler struct {
	admin    *admin.Service
	reports  ReportLister
	archiver archive.Archiver
	now      func() time.Time
	logger   *logger.Logger
}

// NewAdminHandler creates a new admin handler. archiver may be nil when no
// archive is configured.
func NewAdminHandler(svc *admin.Service, reports ReportLister, archiver archive.Archiver, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		admin:    svc,
		reports:  reports,
		archiver: archiver,
		now:      time.Now,
		logger:   log,
	}
}

// Unlock exchanges the PIN for an admin token
// POST /admin/unlock
func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(r.Context(), req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	token, err := h.admin.Unlock(req.PIN)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, token)
}

// Export downloads the text export
// GET /admin/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	reports := h.reports.All()

	h.logger.Info().
		Str("admin", httputil.GetAdminSubject(r.Context())).
		Int("reports", len(reports)).
		Msg("watchlist exported")

	httputil.Text(w, http.StatusOK, export.FileName(now), export.Render(reports, now))
}

// Archive uploads the text export to the archive
// POST /admin/export/archive
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		httputil.ErrorLocalized(w, r, errors.ArchiveUnavailable(nil))
		return
	}

	reports := h.reports.All()
	if len(reports) == 0 {
		httputil.ErrorLocalized(w, r, errors.BadRequest("no reports to archive"))
		return
	}

	now := h.now()
	obj, err := h.archiver.Upload(r.Context(), export.FileName(now), export.Render(reports, now))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, obj)
}
