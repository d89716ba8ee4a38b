package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]string{"text": text}},
				},
			},
		},
	})
	return string(b)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(&config.AIConfig{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, logger.Nop())
}

func TestGeminiClient_Redact(t *testing.T) {
	var got generateRequest
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(geminiReply(`{"sanitized_description":"Driver [REDACTED] sped","sanitized_location":"Main Rd"}`)))
	})

	res, err := client.Redact(context.Background(), "Driver Mr Jones sped", "Main Rd")
	require.NoError(t, err)
	assert.Equal(t, "Driver [REDACTED] sped", res.SanitizedDescription)
	assert.Equal(t, "Main Rd", res.SanitizedLocation)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Contains(t, got.Contents[0].Parts[0].Text, `"Driver Mr Jones sped"`)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	require.NotNil(t, got.GenerationConfig.ResponseSchema)
	assert.ElementsMatch(t, []string{"sanitized_description", "sanitized_location"}, got.GenerationConfig.ResponseSchema.Required)
}

func TestGeminiClient_Analyze_WithPhoto(t *testing.T) {
	var got generateRequest
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(geminiReply("```json\n" + validAnalysis + "\n```")))
	})

	summary, err := client.Analyze(context.Background(), domain.ReportInput{
		Description:  "Taxi sped through a red light and nearly hit me",
		LicensePlate: "ca123456",
		Photo:        &domain.Photo{Data: []byte{0xFF, 0xD8, 0xFF}, MimeType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.SeverityRating)

	parts := got.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "License Plate: ca123456")
	assert.Contains(t, parts[0].Text, "Location: Not provided")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
	assert.Equal(t, "/9j/", parts[1].InlineData.Data)
	assert.Len(t, got.GenerationConfig.ResponseSchema.Required, 5)
}

func TestGeminiClient_Analyze_OutOfRangeSeverity(t *testing.T) {
	for _, severity := range []string{"0", "6"} {
		t.Run(severity, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(geminiReply(`{"incident_category":"Speeding","summary":"s","severity_rating":` + severity + `,"vehicle_description":"v","location_guess":""}`)))
			})

			_, err := client.Analyze(context.Background(), domain.ReportInput{Description: "speeding taxi on the N2"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrAnalysisUnavailable))
			assert.True(t, errors.Is(err, errors.ErrMalformedResponse))
		})
	}
}

func TestGeminiClient_HTTPErrors(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Redact(context.Background(), "some text here", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRedactionUnavailable))
	assert.False(t, errors.Is(err, errors.ErrMalformedResponse))

	_, err = client.Analyze(context.Background(), domain.ReportInput{Description: "some text here"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAnalysisUnavailable))
}

func TestGeminiClient_BlockedAndEmpty(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})
	_, err := client.Redact(context.Background(), "text", "")
	assert.True(t, errors.Is(err, errors.ErrRedactionUnavailable))

	client = newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	_, err = client.Redact(context.Background(), "text", "")
	assert.True(t, errors.Is(err, errors.ErrRedactionUnavailable))
}

func TestGeminiClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Redact(ctx, "text", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRedactionUnavailable))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNew(t *testing.T) {
	c, err := New(&config.AIConfig{Provider: config.AIProviderStub}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "stub", c.Name())

	c, err = New(&config.AIConfig{Provider: config.AIProviderGemini, Model: "m"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())

	_, err = New(&config.AIConfig{Provider: "openai"}, logger.Nop())
	assert.Error(t, err)
}
