package handler

import (
	"net/http"

	"github.com/taxiwatch/taxiwatch-backend/internal/navigation"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/workflow"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// DiffField is one row of the privacy diff shown before confirmation
type DiffField struct {
	domain.FieldDiff
	Label string `json:"label"`
}

// ErrorView is the last failure shown in the idle state
type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Snapshot is the client-facing view of the workflow
type Snapshot struct {
	State  domain.StateKind     `json:"state"`
	View   navigation.View      `json:"view"`
	Diff   []DiffField          `json:"diff,omitempty"`
	Error  *ErrorView           `json:"error,omitempty"`
	Result *domain.StoredReport `json:"result,omitempty"`
}

// WorkflowHandler handles submission workflow endpoints
type WorkflowHandler struct {
	workflow *workflow.Workflow
	nav      *navigation.Navigator
	maxBody  int64
	logger   *logger.Logger
}

// NewWorkflowHandler creates a new workflow handler. maxBody caps the
// submit request size; zero means no limit.
func NewWorkflowHandler(wf *workflow.Workflow, nav *navigation.Navigator, maxBody int64, log *logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflow: wf,
		nav:      nav,
		maxBody:  maxBody,
		logger:   log,
	}
}

// Get returns the current snapshot
// GET /workflow
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.snapshot(r, h.workflow.State()))
}

// Submit starts a new report
// POST /workflow/submit
func (h *WorkflowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var input domain.ReportInput
	if err := httputil.DecodeJSONLocalized(r, &input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(r.Context(), input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	_, err := h.workflow.Submit(r.Context(), input)
	h.respond(w, r, err)
}

// Confirm accepts the redaction and runs the analysis
// POST /workflow/confirm
func (h *WorkflowHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	_, err := h.workflow.Confirm(r.Context())
	h.respond(w, r, err)
}

// Cancel discards the pending report
// POST /workflow/cancel
func (h *WorkflowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	_, err := h.workflow.Cancel()
	h.respond(w, r, err)
}

// Abort interrupts an in-flight gateway call
// POST /workflow/abort
func (h *WorkflowHandler) Abort(w http.ResponseWriter, r *http.Request) {
	_, err := h.workflow.Abort()
	h.respond(w, r, err)
}

// Acknowledge clears a finished result and shows the list
// POST /workflow/acknowledge
func (h *WorkflowHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	_, err := h.workflow.Acknowledge()
	if err == nil {
		h.nav.Navigate(navigation.ViewList)
	}
	h.respond(w, r, err)
}

func (h *WorkflowHandler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logger.Warn().
			Str("request_id", httputil.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Err(err).
			Msg("workflow action failed")
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, h.snapshot(r, h.workflow.State()))
}

func (h *WorkflowHandler) snapshot(r *http.Request, state domain.State) Snapshot {
	localizer := i18n.LocalizerFromContext(r.Context())
	s := Snapshot{
		State: state.Kind(),
		View:  h.nav.View(),
	}

	switch st := state.(type) {
	case domain.Idle:
		if st.Err != nil {
			s.Error = errorView(r, st.Err)
		}
	case domain.AwaitingConfirmation:
		for _, d := range domain.Diff(st.Input, st.Redaction) {
			if d.Original == domain.NotProvided {
				d.Original = localizer.T("diff.not_provided")
			}
			if d.Sanitized == domain.NotProvided {
				d.Sanitized = localizer.T("diff.not_provided")
			}
			s.Diff = append(s.Diff, DiffField{FieldDiff: d, Label: localizer.T("diff." + d.Field)})
		}
	case domain.Result:
		report := st.Report
		s.Result = &report
	}
	return s
}

func errorView(r *http.Request, err error) *ErrorView {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return &ErrorView{Code: appErr.Code, Message: appErr.Localize(r.Context())}
	}
	return &ErrorView{Code: "INTERNAL_ERROR", Message: i18n.TFromContext(r.Context(), "errors.internal")}
}
