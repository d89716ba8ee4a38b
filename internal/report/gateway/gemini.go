package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

const redactionPrompt = `You are a privacy filter for anonymous traffic incident reports.
Find personally identifiable information in the two fields below: names of people,
street addresses, apartment or unit numbers, phone numbers, email addresses, ID numbers
and any other detail that could identify a person or their private residence.
Replace each one with [REDACTED]. Keep every other word exactly as written and do not
summarize. If a field contains no PII, return it unchanged. An empty field stays empty.

Description: %q
Location: %q`

const analysisPrompt = `Analyze this reckless driving report about a taxi. Personal
information has already been removed. Return a structured JSON summary.

License Plate: %s
Location: %s
Description: %s

If a photo is attached, use it only to improve the vehicle description.
Choose a short incident category such as Speeding, Illegal Overtake,
Ignoring Traffic Signal, Distracted Driving or General Recklessness.
Rate severity as a whole number from 1 (minor) to 5 (extremely dangerous).
If the location cannot be determined, return an empty location_guess.`

// Schema is the subset of the Gemini response schema used here.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

var redactionSchema = Schema{
	Type: "OBJECT",
	Properties: map[string]Schema{
		"sanitized_description": {Type: "STRING", Description: "The description with PII replaced by [REDACTED]."},
		"sanitized_location":    {Type: "STRING", Description: "The location with PII replaced by [REDACTED]."},
	},
	Required: []string{"sanitized_description", "sanitized_location"},
}

var analysisSchema = Schema{
	Type: "OBJECT",
	Properties: map[string]Schema{
		"incident_category":   {Type: "STRING", Description: "Category of the driving incident."},
		"summary":             {Type: "STRING", Description: "Concise summary of the incident."},
		"severity_rating":     {Type: "INTEGER", Description: "Severity from 1 to 5."},
		"vehicle_description": {Type: "STRING", Description: "Description of the vehicle, e.g. White Toyota Quantum."},
		"location_guess":      {Type: "STRING", Description: "Where the incident happened."},
	},
	Required: []string{"incident_category", "summary", "severity_rating", "vehicle_description", "location_guess"},
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

// GeminiClient calls the Gemini generateContent REST endpoint for both
// redaction and analysis.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewGeminiClient creates a client from the AI configuration.
func NewGeminiClient(cfg *config.AIConfig, log *logger.Logger) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.WithComponent("gemini"),
	}
}

func (c *GeminiClient) Name() string { return "gemini" }

// Redact implements Redactor.
func (c *GeminiClient) Redact(ctx context.Context, description, location string) (domain.RedactionResult, error) {
	parts := []part{{Text: fmt.Sprintf(redactionPrompt, description, location)}}

	text, err := c.generate(ctx, parts, &redactionSchema)
	if err != nil {
		return domain.RedactionResult{}, redactionUnavailable(err)
	}

	result, err := ParseRedaction(text)
	if err != nil {
		return domain.RedactionResult{}, redactionUnavailable(err)
	}
	return result, nil
}

// Analyze implements Analyzer.
func (c *GeminiClient) Analyze(ctx context.Context, input domain.ReportInput) (domain.AnalysisSummary, error) {
	parts := []part{{Text: fmt.Sprintf(analysisPrompt,
		orNotProvided(input.LicensePlate),
		orNotProvided(input.Location),
		input.Description,
	)}}
	if input.Photo != nil && len(input.Photo.Data) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: input.Photo.MimeType,
			Data:     base64.StdEncoding.EncodeToString(input.Photo.Data),
		}})
	}

	text, err := c.generate(ctx, parts, &analysisSchema)
	if err != nil {
		return domain.AnalysisSummary{}, analysisUnavailable(err)
	}

	summary, err := ParseAnalysis(text)
	if err != nil {
		return domain.AnalysisSummary{}, analysisUnavailable(err)
	}
	return summary, nil
}

func (c *GeminiClient) generate(ctx context.Context, parts []part, schema *Schema) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response body: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("request_bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("gemini call finished")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(respBody), 256))
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("gemini: parse response: %w", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: empty candidate (finish reason %q)", gr.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotProvided
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
