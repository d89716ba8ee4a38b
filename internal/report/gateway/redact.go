package gateway

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted span.
const Placeholder = "[REDACTED]"

var (
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe       = regexp.MustCompile(`https?://[^\s"'<>]+`)
	phoneRe     = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
	unitRe      = regexp.MustCompile(`(?i)\b(?:apt|apartment|unit|flat|suite)\.?\s*#?\s*\d+[a-z]?\b`)
	streetRe    = regexp.MustCompile(`\b\d{1,5}[A-Za-z]?\s+(?:[A-Z][A-Za-z'\-]*\s+){1,3}(?:Street|St|Road|Rd|Avenue|Ave|Drive|Dr|Lane|Ln|Crescent|Cres|Close|Way|Boulevard|Blvd)\b\.?`)
	honorificRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)
)

// RedactPatterns replaces well-formed PII (emails, URLs, phone and ID
// numbers, unit numbers, street addresses, titled names) with Placeholder.
// Untitled names are not detected.
func RedactPatterns(s string) string {
	if s == "" {
		return s
	}

	out := s
	out = emailRe.ReplaceAllString(out, Placeholder)
	out = urlRe.ReplaceAllString(out, Placeholder)
	out = unitRe.ReplaceAllString(out, Placeholder)
	out = streetRe.ReplaceAllString(out, Placeholder)
	out = phoneRe.ReplaceAllString(out, Placeholder)
	out = honorificRe.ReplaceAllString(out, Placeholder)
	for strings.Contains(out, Placeholder+" "+Placeholder) {
		out = strings.ReplaceAll(out, Placeholder+" "+Placeholder, Placeholder)
	}
	for strings.Contains(out, Placeholder+Placeholder) {
		out = strings.ReplaceAll(out, Placeholder+Placeholder, Placeholder)
	}
	return out
}
