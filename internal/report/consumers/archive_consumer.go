package consumers

import (
	"context"
	"fmt"

	"github.com/taxiwatch/taxiwatch-backend/internal/archive"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/events"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/export"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/messaging"
)

// ArchiveHandler archives every finalized report (testable without RabbitMQ)
type ArchiveHandler struct {
	archiver archive.Archiver
	logger   *logger.Logger
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(archiver archive.Archiver, log *logger.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiver: archiver,
		logger:   log,
	}
}

// HandleEvent dispatches an event by type
func (h *ArchiveHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	switch event.Type {
	case messaging.EventReportFinalized:
		return h.handleReportFinalized(ctx, event)
	default:
		h.logger.Warn().Str("event_type", event.Type).Msg("unknown event type received")
		return nil
	}
}

// ArchiveConsumer consumes report.finalized events into the archive
type ArchiveConsumer struct {
	consumer *messaging.Consumer
	handler  *ArchiveHandler
	logger   *logger.Logger
}

// NewArchiveConsumer subscribes the archiver queue to finalized reports
func NewArchiveConsumer(rmq *messaging.RabbitMQ, archiver archive.Archiver, log *logger.Logger) (*ArchiveConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, messaging.QueueReportArchiver, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeReports, messaging.EventReportFinalized); err != nil {
		return nil, err
	}

	handler := NewArchiveHandler(archiver, log)
	consumer.RegisterHandler(messaging.EventReportFinalized, handler.handleReportFinalized)

	return &ArchiveConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *ArchiveConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// handleReportFinalized uploads a one-report export document
func (h *ArchiveHandler) handleReportFinalized(ctx context.Context, event *messaging.Event) error {
	var data messaging.ReportFinalizedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal ReportFinalizedEvent")
		return err
	}

	if data.ReportID == "" {
		h.logger.Warn().Str("event_id", event.ID).Msg("report.finalized event without report id")
		return fmt.Errorf("missing report id in report.finalized event")
	}

	report := events.Report(data)
	doc := export.Render([]domain.StoredReport{report}, event.Timestamp)

	obj, err := h.archiver.Upload(ctx, export.ReportFileName(report), doc)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("report_id", report.ID).
			Msg("failed to archive finalized report")
		return err
	}

	h.logger.Info().
		Str("report_id", report.ID).
		Str("key", obj.Key).
		Msg("finalized report archived")
	return nil
}
