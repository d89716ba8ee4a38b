package events

import (
	"context"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/messaging"
)

// ReportEventPublisher publishes report lifecycle events. Publishing is
// best-effort: failures are logged and never returned.
type ReportEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewReportEventPublisher declares the reports exchange and returns a publisher on it.
func NewReportEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ReportEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeReports, "taxiwatch", log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing event publisher.
func NewWithPublisher(p messaging.EventPublisher, log *logger.Logger) *ReportEventPublisher {
	return &ReportEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishReportFinalized publishes a report.finalized event
func (p *ReportEventPublisher) PublishReportFinalized(ctx context.Context, r domain.StoredReport) {
	data := FinalizedEvent(r)

	if err := p.publisher.Publish(ctx, messaging.EventReportFinalized, data); err != nil {
		p.logger.Error().Err(err).Str("report_id", r.ID).Msg("failed to publish report finalized event")
	}
}

// FinalizedEvent builds the event payload for a stored report.
func FinalizedEvent(r domain.StoredReport) messaging.ReportFinalizedEvent {
	return messaging.ReportFinalizedEvent{
		ReportID:           r.ID,
		LicensePlate:       r.LicensePlate,
		Timestamp:          r.Timestamp,
		IncidentCategory:   r.IncidentCategory,
		Summary:            r.Summary,
		SeverityRating:     r.SeverityRating,
		VehicleDescription: r.VehicleDescription,
		LocationGuess:      r.LocationGuess,
	}
}

// Report converts an event payload back into a stored report.
func Report(e messaging.ReportFinalizedEvent) domain.StoredReport {
	return domain.StoredReport{
		ID:                 e.ReportID,
		LicensePlate:       e.LicensePlate,
		Timestamp:          e.Timestamp,
		IncidentCategory:   e.IncidentCategory,
		Summary:            e.Summary,
		SeverityRating:     e.SeverityRating,
		VehicleDescription: e.VehicleDescription,
		LocationGuess:      e.LocationGuess,
	}
}
