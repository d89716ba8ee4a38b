// Package export renders the watchlist as the plain-text document handed to
// law enforcement.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
)

// TimeFormat is the UTC millisecond timestamp used throughout the document.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// ContentType is served with downloads and uploads of the document.
const ContentType = "text/plain; charset=utf-8"

const (
	title     = "TAXI WATCH - LAW ENFORCEMENT REPORT"
	rule      = "========================================"
	separator = "\n----------------------------------------\n\n"
)

// Render builds the export document for reports, most recent first.
func Render(reports []domain.StoredReport, generatedAt time.Time) string {
	sorted := make([]domain.StoredReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nGenerated on: %s\nTotal Reports: %d\n\n%s\n\n",
		title, FormatTime(generatedAt), len(sorted), rule)

	blocks := make([]string, len(sorted))
	for i, r := range sorted {
		blocks[i] = Block(i+1, r)
	}
	b.WriteString(strings.Join(blocks, separator))
	return b.String()
}

// Block renders a single numbered report.
func Block(n int, r domain.StoredReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- REPORT %d ---\n", n)
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	fmt.Fprintf(&b, "Timestamp: %s\n", FormatTime(r.Timestamp))
	fmt.Fprintf(&b, "License Plate: %s\n", r.LicensePlate)
	fmt.Fprintf(&b, "Incident Category: %s\n", r.IncidentCategory)
	fmt.Fprintf(&b, "Severity: %d/5\n", r.SeverityRating)
	fmt.Fprintf(&b, "Location Guess: %s\n", r.LocationGuess)
	fmt.Fprintf(&b, "Vehicle Description: %s\n", r.VehicleDescription)
	fmt.Fprintf(&b, "AI Summary: %s\n", r.Summary)
	return b.String()
}

// FormatTime formats t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// FileName is the download and archive name of an export generated at t.
func FileName(t time.Time) string {
	return "taxi_watch_report_" + strings.ReplaceAll(FormatTime(t), ":", "-") + ".txt"
}

// ReportFileName names the archived copy of a single report.
func ReportFileName(r domain.StoredReport) string {
	return "taxi_watch_report_" + strings.ReplaceAll(FormatTime(r.Timestamp), ":", "-") + "_" + r.ID + ".txt"
}
