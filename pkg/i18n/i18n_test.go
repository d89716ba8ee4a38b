package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", LocaleEnglish},
		{"af-ZA,af;q=0.9,en;q=0.8", LocaleAfrikaans},
		{"en-GB,af;q=0.5", LocaleEnglish},
		{"fr-FR,de;q=0.7", LocaleEnglish},
		{"zu, af", LocaleAfrikaans},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	assert.Equal(t, "privacy check failed", TWithLocale(LocaleEnglish, "workflow.privacy_check_failed"))
	assert.Equal(t, "privaatheidskontrole het misluk", TWithLocale(LocaleAfrikaans, "workflow.privacy_check_failed"))

	// unknown locale falls back to English
	assert.Equal(t, "report analysis failed", TWithLocale("xx", "workflow.analysis_failed"))

	// missing key returns the key itself
	assert.Equal(t, "workflow.nope", TWithLocale(LocaleEnglish, "workflow.nope"))
}

func TestLocalizer_Params(t *testing.T) {
	got := TWithLocale(LocaleEnglish, "workflow.invalid_transition", map[string]string{"action": "confirm", "state": "idle"})
	assert.Equal(t, "cannot confirm while idle", got)
}

func TestTFromContext(t *testing.T) {
	ctx := WithLocale(context.Background(), LocaleAfrikaans)
	assert.Equal(t, "Ligging", TFromContext(ctx, "diff.location"))
	assert.Equal(t, LocaleEnglish, GetLocaleFromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"default", "/", "", LocaleEnglish},
		{"accept-language", "/", "af-ZA,en;q=0.5", LocaleAfrikaans},
		{"query overrides header", "/?lang=en", "af", LocaleEnglish},
		{"unsupported query falls back", "/?lang=fr", "af", LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetLocaleFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, rr.Header().Get("Content-Language"))
		})
	}
}

func TestNewLocalizer_UnsupportedFallsBack(t *testing.T) {
	assert.Equal(t, LocaleAfrikaans, NewLocalizer("af").Locale())
	assert.Equal(t, LocaleEnglish, NewLocalizer("zu").Locale())
	assert.False(t, Supported("zu"))
}
