package domain

import "strings"

// NotProvided is shown in place of an empty field.
const NotProvided = "Not provided"

// FieldDiff is the before/after view of one redactable field.
type FieldDiff struct {
	Field     string `json:"field"`
	Original  string `json:"original"`
	Sanitized string `json:"sanitized"`
	Changed   bool   `json:"changed"`
}

// Diff lists the redactable fields in display order.
func Diff(in ReportInput, r RedactionResult) []FieldDiff {
	return []FieldDiff{
		fieldDiff("description", in.Description, r.SanitizedDescription),
		fieldDiff("location", in.Location, r.SanitizedLocation),
	}
}

func fieldDiff(field, original, sanitized string) FieldDiff {
	if original == "" {
		original = NotProvided
	}
	if sanitized == "" {
		sanitized = NotProvided
	}
	return FieldDiff{
		Field:     field,
		Original:  original,
		Sanitized: sanitized,
		Changed:   strings.TrimSpace(original) != strings.TrimSpace(sanitized),
	}
}
