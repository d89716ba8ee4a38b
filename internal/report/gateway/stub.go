package gateway

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
)

// StubClient is a deterministic, no-network client for local development
// and tests. Redaction is pattern based; analysis is keyword based.
type StubClient struct{}

// NewStubClient creates a stub client.
func NewStubClient() *StubClient { return &StubClient{} }

func (c *StubClient) Name() string { return "stub" }

// Redact implements Redactor.
func (c *StubClient) Redact(ctx context.Context, description, location string) (domain.RedactionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RedactionResult{}, redactionUnavailable(err)
	}
	return domain.RedactionResult{
		SanitizedDescription: RedactPatterns(description),
		SanitizedLocation:    RedactPatterns(location),
	}, nil
}

type categoryRule struct {
	category string
	severity int
	keywords []string
}

// First match wins.
var categoryRules = []categoryRule{
	{"Ignoring Traffic Signal", 4, []string{"red light", "robot", "stop sign", "traffic light", "signal"}},
	{"Illegal Overtake", 4, []string{"overtak", "solid line", "wrong side", "oncoming"}},
	{"Speeding", 3, []string{"speed", "sped", "too fast", "racing"}},
	{"Distracted Driving", 3, []string{"phone", "texting", "distract", "not looking"}},
}

var escalators = []string{"nearly hit", "almost hit", "pedestrian", "crash", "collision", "child", "school"}

// Analyze implements Analyzer.
func (c *StubClient) Analyze(ctx context.Context, input domain.ReportInput) (domain.AnalysisSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisSummary{}, analysisUnavailable(err)
	}

	text := strings.ToLower(input.Description)

	category, severity := "General Recklessness", 2
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			category, severity = rule.category, rule.severity
			break
		}
	}
	if containsAny(text, escalators) && severity < 5 {
		severity++
	}

	vehicle := "Not determined from the report"
	if input.Photo != nil {
		vehicle = "Vehicle shown in the attached photo"
	}

	return domain.AnalysisSummary{
		IncidentCategory:   category,
		Summary:            firstSentence(input.Description, 200),
		SeverityRating:     severity,
		VehicleDescription: vehicle,
		LocationGuess:      strings.TrimSpace(input.Location),
	}, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstSentence(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		s = s[:i+1]
	}
	if utf8.RuneCountInString(s) > max {
		s = strings.TrimSpace(string([]rune(s)[:max])) + "..."
	}
	return s
}
