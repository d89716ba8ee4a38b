// Package gateway holds the two AI boundaries of the report workflow: the
// redaction gateway that scrubs PII from free text and the analysis gateway
// that classifies a sanitized report.
package gateway

import (
	"context"
	"fmt"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// Redactor replaces PII in the redactable report fields. Empty strings are
// valid input. Every failure wraps errors.ErrRedactionUnavailable.
type Redactor interface {
	Redact(ctx context.Context, description, location string) (domain.RedactionResult, error)
}

// Analyzer classifies a sanitized report. Every failure wraps
// errors.ErrAnalysisUnavailable; contract violations also wrap
// errors.ErrMalformedResponse.
type Analyzer interface {
	Analyze(ctx context.Context, input domain.ReportInput) (domain.AnalysisSummary, error)
}

// Client is a provider that serves both gateways.
type Client interface {
	Redactor
	Analyzer
	Name() string
}

// New returns the client selected by cfg.Provider.
func New(cfg *config.AIConfig, log *logger.Logger) (Client, error) {
	switch cfg.Provider {
	case config.AIProviderGemini:
		return NewGeminiClient(cfg, log), nil
	case config.AIProviderStub:
		return NewStubClient(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func redactionUnavailable(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrRedactionUnavailable, err)
}

func analysisUnavailable(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrAnalysisUnavailable, err)
}
