// Package workflow drives a report from raw input to a stored watchlist
// entry: redaction, reporter confirmation, analysis, finalization.
package workflow

import (
	"context"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/gateway"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/photo"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

// Store is the watchlist the workflow appends to.
type Store interface {
	Append(ctx context.Context, r domain.StoredReport)
	All() []domain.StoredReport
}

// PhotoNormalizer prepares an attached photo before it is held.
type PhotoNormalizer interface {
	Normalize(p *domain.Photo) (*domain.Photo, error)
}

// FinalizedPublisher announces finalized reports.
type FinalizedPublisher interface {
	PublishReportFinalized(ctx context.Context, r domain.StoredReport)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock sets the source of report timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithIDGenerator sets the source of report ids.
func WithIDGenerator(newID func() string) Option {
	return func(w *Workflow) { w.newID = newID }
}

// WithPhotoNormalizer normalizes photos on submit.
func WithPhotoNormalizer(n PhotoNormalizer) Option {
	return func(w *Workflow) { w.photos = n }
}

// WithPublisher publishes an event for every finalized report.
func WithPublisher(p FinalizedPublisher) Option {
	return func(w *Workflow) { w.events = p }
}

// Workflow is the submission state machine. It holds at most one report at
// a time; every state change happens under mu.
type Workflow struct {
	mu     sync.Mutex
	state  domain.State
	gen    uint64
	cancel context.CancelFunc

	redactor gateway.Redactor
	analyzer gateway.Analyzer
	store    Store
	photos   PhotoNormalizer
	events   FinalizedPublisher
	now      func() time.Time
	newID    func() string
	log      *logger.Logger
}

// New creates a workflow in the Idle state.
func New(redactor gateway.Redactor, analyzer gateway.Analyzer, store Store, log *logger.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		state:    domain.Idle{},
		redactor: redactor,
		analyzer: analyzer,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log.WithComponent("workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit accepts raw input and runs the redaction call. It returns once the
// workflow is AwaitingConfirmation, or back in Idle after a failure or abort.
// Submit is rejected unless the workflow is Idle.
func (w *Workflow) Submit(ctx context.Context, input domain.ReportInput) (domain.State, error) {
	if utf8.RuneCountInString(input.Description) < domain.MinDescriptionLength {
		return w.State(), errors.Validation(map[string]string{
			"description": i18n.TFromContext(ctx, "validation.min", map[string]string{
				"param": strconv.Itoa(domain.MinDescriptionLength),
			}),
		})
	}

	w.mu.Lock()
	if err := w.expectLocked("submit", domain.KindIdle); err != nil {
		defer w.mu.Unlock()
		return w.state, err
	}
	w.mu.Unlock()

	switch {
	case input.Photo == nil:
	case w.photos != nil:
		normalized, err := w.photos.Normalize(input.Photo)
		if err != nil {
			return w.State(), err
		}
		input.Photo = normalized
	default:
		// The held bytes are zeroed after analysis; keep the caller's buffer intact.
		input.Photo = &domain.Photo{Data: append([]byte(nil), input.Photo.Data...), MimeType: input.Photo.MimeType}
	}

	w.mu.Lock()
	if err := w.expectLocked("submit", domain.KindIdle); err != nil {
		defer w.mu.Unlock()
		return w.state, err
	}
	callCtx, gen := w.beginCallLocked(ctx)
	w.setLocked(domain.Redacting{Input: input})
	w.mu.Unlock()

	w.log.Info().
		Int("description_len", len(input.Description)).
		Int("location_len", len(input.Location)).
		Bool("has_photo", input.Photo != nil).
		Msg("redaction started")

	start := time.Now()
	result, err := w.redactor.Redact(callCtx, input.Description, input.Location)
	observeGateway(callCtx, "redaction", start, err)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.endCallLocked(gen) {
		return w.state, errors.Aborted()
	}
	if err != nil {
		appErr := errors.PrivacyCheckFailed(err)
		w.log.Warn().Err(err).Msg("redaction failed")
		w.setLocked(domain.Idle{Err: appErr})
		return w.state, appErr
	}

	w.setLocked(domain.AwaitingConfirmation{Input: input, Redaction: result})
	return w.state, nil
}

// Confirm accepts the redaction, runs the analysis call on the sanitized
// input and finalizes the report. The pending pair is consumed whatever the
// outcome. Confirm is rejected unless the workflow is AwaitingConfirmation.
func (w *Workflow) Confirm(ctx context.Context) (domain.State, error) {
	w.mu.Lock()
	pending, ok := w.state.(domain.AwaitingConfirmation)
	if !ok {
		defer w.mu.Unlock()
		return w.state, w.rejectLocked("confirm")
	}

	merged := pending.Input.Merge(pending.Redaction)
	originalPlate := pending.Input.LicensePlate

	callCtx, gen := w.beginCallLocked(ctx)
	w.setLocked(domain.Analyzing{})
	w.mu.Unlock()

	w.log.Info().Bool("has_photo", merged.Photo != nil).Msg("analysis started")

	start := time.Now()
	summary, err := w.analyzer.Analyze(callCtx, merged)
	observeGateway(callCtx, "analysis", start, err)

	if merged.Photo != nil {
		photo.ZeroBytes(merged.Photo.Data)
	}

	w.mu.Lock()
	if !w.endCallLocked(gen) {
		defer w.mu.Unlock()
		return w.state, errors.Aborted()
	}
	if err != nil {
		defer w.mu.Unlock()
		appErr := errors.AnalysisFailed(err)
		w.log.Warn().Err(err).Bool("malformed", errors.Is(err, errors.ErrMalformedResponse)).Msg("analysis failed")
		w.setLocked(domain.Idle{Err: appErr})
		return w.state, appErr
	}

	report := domain.Finalize(w.newID(), w.now(), originalPlate, summary)
	w.store.Append(context.WithoutCancel(ctx), report)
	metrics.ReportsFinalizedTotal.Inc()
	w.setLocked(domain.Result{Report: report})
	state := w.state
	w.mu.Unlock()

	w.log.WithReportID(report.ID).Info().
		Str("incident_category", report.IncidentCategory).
		Int("severity_rating", report.SeverityRating).
		Msg("report finalized")

	if w.events != nil {
		w.events.PublishReportFinalized(context.WithoutCancel(ctx), report)
	}
	return state, nil
}

// Cancel discards the pending input and redaction.
func (w *Workflow) Cancel() (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked("cancel", domain.KindAwaitingConfirmation); err != nil {
		return w.state, err
	}
	w.setLocked(domain.Idle{})
	return w.state, nil
}

// Abort cancels an in-flight redaction or analysis call and returns to Idle.
// The interrupted Submit or Confirm returns an aborted error and its late
// gateway result is discarded.
func (w *Workflow) Abort() (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state.(type) {
	case domain.Redacting, domain.Analyzing:
	default:
		return w.state, errors.InvalidTransition("abort", string(w.state.Kind()))
	}

	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.log.Info().Str("from", string(w.state.Kind())).Msg("in-flight call aborted")
	w.setLocked(domain.Idle{})
	return w.state, nil
}

// Acknowledge clears a finished result.
func (w *Workflow) Acknowledge() (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expectLocked("acknowledge", domain.KindResult); err != nil {
		return w.state, err
	}
	w.setLocked(domain.Idle{})
	return w.state, nil
}

// ClearError drops the error shown in Idle, if any.
func (w *Workflow) ClearError() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idle, ok := w.state.(domain.Idle); ok && idle.Err != nil {
		w.state = domain.Idle{}
	}
}

// Reports returns the watchlist, most recent first.
func (w *Workflow) Reports() []domain.StoredReport {
	return w.store.All()
}

func (w *Workflow) expectLocked(action string, want domain.StateKind) error {
	if w.state.Kind() == want {
		return nil
	}
	return w.rejectLocked(action)
}

func (w *Workflow) rejectLocked(action string) error {
	switch w.state.(type) {
	case domain.Redacting, domain.Analyzing:
		return errors.Busy()
	default:
		return errors.InvalidTransition(action, string(w.state.Kind()))
	}
}

// beginCallLocked starts a gateway call owned by the workflow. The call
// outlives the caller's context and ends only on completion or Abort.
func (w *Workflow) beginCallLocked(ctx context.Context) (context.Context, uint64) {
	w.gen++
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	return callCtx, w.gen
}

// endCallLocked releases the call context and reports whether the call is
// still current, i.e. was not aborted.
func (w *Workflow) endCallLocked(gen uint64) bool {
	if w.gen != gen {
		return false
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	return true
}

func (w *Workflow) setLocked(next domain.State) {
	from := w.state.Kind()
	w.state = next
	metrics.WorkflowTransitionsTotal.WithLabelValues(string(from), string(next.Kind())).Inc()
	w.log.Debug().Str("from", string(from)).Str("to", string(next.Kind())).Msg("workflow transition")
}

func observeGateway(ctx context.Context, name string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = "aborted"
	case err != nil:
		outcome = "error"
	}
	metrics.GatewayCallDurationSeconds.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())
}
