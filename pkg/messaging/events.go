package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventReportFinalized = "report.finalized"
)

// Exchange and queue names
const (
	ExchangeReports     = "taxiwatch.reports"
	QueueReportArchiver = "taxiwatch.report-archiver"
)

// Event is the envelope for everything published on the broker
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given payload
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ReportFinalizedEvent carries a finalized watchlist entry.
// Only already-sanitized fields are included.
type ReportFinalizedEvent struct {
	ReportID           string    `json:"report_id"`
	LicensePlate       string    `json:"license_plate"`
	Timestamp          time.Time `json:"timestamp"`
	IncidentCategory   string    `json:"incident_category"`
	Summary            string    `json:"summary"`
	SeverityRating     int       `json:"severity_rating"`
	VehicleDescription string    `json:"vehicle_description"`
	LocationGuess      string    `json:"location_guess"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
