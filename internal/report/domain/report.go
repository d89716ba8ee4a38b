package domain

import (
	"strings"
	"time"
)

// PlateNotProvided is stored when the reporter left the plate empty.
const PlateNotProvided = "N/A"

// MinDescriptionLength is the shortest description that can be submitted.
const MinDescriptionLength = 11

// Photo is an image attached to a report, delivered with its declared media type.
type Photo struct {
	Data     []byte `json:"data" validate:"required"`
	MimeType string `json:"mimeType" validate:"required,startswith=image/"`
}

// ReportInput is the raw, user-supplied report. It is held only until the
// workflow finalizes or discards it.
type ReportInput struct {
	Description  string `json:"description" validate:"required,min=11"`
	LicensePlate string `json:"licensePlate"`
	Location     string `json:"location"`
	Photo        *Photo `json:"photo,omitempty"`
}

// RedactionResult is the PII-scrubbed copy of the redactable fields.
// Both fields are always set; equal to the input means nothing was redacted.
type RedactionResult struct {
	SanitizedDescription string `json:"sanitized_description"`
	SanitizedLocation    string `json:"sanitized_location"`
}

// Merge overwrites description and location with the sanitized text.
// License plate and photo are left untouched.
func (in ReportInput) Merge(r RedactionResult) ReportInput {
	in.Description = r.SanitizedDescription
	in.Location = r.SanitizedLocation
	return in
}

// AnalysisSummary is the structured classification of a sanitized report.
type AnalysisSummary struct {
	IncidentCategory   string `json:"incident_category"`
	Summary            string `json:"summary"`
	SeverityRating     int    `json:"severity_rating"`
	VehicleDescription string `json:"vehicle_description"`
	LocationGuess      string `json:"location_guess"`
}

// StoredReport is a finalized watchlist entry. It is never mutated once
// appended to the store.
type StoredReport struct {
	ID                 string    `json:"id"`
	LicensePlate       string    `json:"licensePlate"`
	Timestamp          time.Time `json:"timestamp"`
	IncidentCategory   string    `json:"incident_category"`
	Summary            string    `json:"summary"`
	SeverityRating     int       `json:"severity_rating"`
	VehicleDescription string    `json:"vehicle_description"`
	LocationGuess      string    `json:"location_guess"`
}

// Finalize builds the stored record from an analysis. The plate must come
// from the original, pre-redaction input.
func Finalize(id string, at time.Time, originalPlate string, s AnalysisSummary) StoredReport {
	return StoredReport{
		ID:                 id,
		LicensePlate:       NormalizePlate(originalPlate),
		Timestamp:          at.UTC().Truncate(time.Millisecond),
		IncidentCategory:   s.IncidentCategory,
		Summary:            s.Summary,
		SeverityRating:     s.SeverityRating,
		VehicleDescription: s.VehicleDescription,
		LocationGuess:      s.LocationGuess,
	}
}

// NormalizePlate trims and upper-cases a plate, or returns PlateNotProvided.
func NormalizePlate(plate string) string {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return PlateNotProvided
	}
	return strings.ToUpper(plate)
}
