package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

// ReportStore is the watchlist, most recent first. Persistence failures are
// logged and never returned; the in-memory list stays authoritative.
type ReportStore struct {
	mu       sync.RWMutex
	backend  Backend
	reports  []domain.StoredReport
	degraded bool
	log      *logger.Logger
}

// NewReportStore creates an empty store over the backend. Call Load before use.
func NewReportStore(backend Backend, log *logger.Logger) *ReportStore {
	return &ReportStore{
		backend: backend,
		log:     log.WithComponent("report_store"),
	}
}

// Load replaces the in-memory list with the persisted one. Missing or
// corrupt data yields an empty list.
func (s *ReportStore) Load(ctx context.Context) []domain.StoredReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = nil

	data, err := s.backend.Load(ctx)
	if err != nil {
		s.markDegraded("load", err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var reports []domain.StoredReport
	if err := json.Unmarshal(data, &reports); err != nil {
		s.markDegraded("load", fmt.Errorf("decode watchlist: %w", err))
		return nil
	}

	s.reports = reports
	s.log.Info().Int("reports", len(reports)).Str("backend", s.backend.Name()).Msg("watchlist loaded")
	return s.copyLocked()
}

// Append prepends the report and persists the whole list.
func (s *ReportStore) Append(ctx context.Context, r domain.StoredReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.StoredReport, 0, len(s.reports)+1)
	next = append(next, r)
	next = append(next, s.reports...)
	s.reports = next

	data, err := json.Marshal(s.reports)
	if err != nil {
		s.markDegraded("save", err)
		return
	}
	if err := s.backend.Save(ctx, data); err != nil {
		s.markDegraded("save", err)
		return
	}
	if s.degraded {
		s.log.Info().Msg("report store recovered")
		s.degraded = false
	}
}

// All returns a copy of the watchlist, most recent first.
func (s *ReportStore) All() []domain.StoredReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Degraded reports whether the last load or save failed.
func (s *ReportStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Health returns the health status of the store
func (s *ReportStore) Health() map[string]string {
	status := map[string]string{
		"status":  "up",
		"backend": s.backend.Name(),
	}
	if s.Degraded() {
		status["status"] = "degraded"
	}
	return status
}

func (s *ReportStore) copyLocked() []domain.StoredReport {
	out := make([]domain.StoredReport, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *ReportStore) markDegraded(op string, err error) {
	s.degraded = true
	metrics.PersistenceFailuresTotal.WithLabelValues(s.backend.Name(), op).Inc()
	s.log.Error().
		Err(fmt.Errorf("%w: %w", errors.ErrPersistenceDegraded, err)).
		Str("op", op).
		Str("backend", s.backend.Name()).
		Int("reports_in_memory", len(s.reports)).
		Msg("report store degraded to memory-only")
}
