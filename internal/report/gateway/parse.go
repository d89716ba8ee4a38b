package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
}

// Pointer fields distinguish a missing key from an empty value.
type redactionResponse struct {
	SanitizedDescription *string `json:"sanitized_description" validate:"required"`
	SanitizedLocation    *string `json:"sanitized_location" validate:"required"`
}

// location_guess may be empty; the other strings may not.
type analysisResponse struct {
	IncidentCategory   *string  `json:"incident_category" validate:"required,min=1"`
	Summary            *string  `json:"summary" validate:"required,min=1"`
	SeverityRating     *float64 `json:"severity_rating" validate:"required,min=1,max=5"`
	VehicleDescription *string  `json:"vehicle_description" validate:"required,min=1"`
	LocationGuess      *string  `json:"location_guess" validate:"required"`
}

// ParseRedaction decodes a redaction response body. Any failure wraps
// errors.ErrMalformedResponse.
func ParseRedaction(text string) (domain.RedactionResult, error) {
	var resp redactionResponse
	if err := decodeStrict(text, &resp); err != nil {
		return domain.RedactionResult{}, err
	}
	return domain.RedactionResult{
		SanitizedDescription: *resp.SanitizedDescription,
		SanitizedLocation:    *resp.SanitizedLocation,
	}, nil
}

// ParseAnalysis decodes an analysis response body. Severity must be an
// integer in [1,5]; it is never clamped.
func ParseAnalysis(text string) (domain.AnalysisSummary, error) {
	var resp analysisResponse
	if err := decodeStrict(text, &resp); err != nil {
		return domain.AnalysisSummary{}, err
	}

	severity := *resp.SeverityRating
	if severity != math.Trunc(severity) {
		return domain.AnalysisSummary{}, fmt.Errorf("%w: severity_rating %v is not an integer", errors.ErrMalformedResponse, severity)
	}

	return domain.AnalysisSummary{
		IncidentCategory:   *resp.IncidentCategory,
		Summary:            *resp.Summary,
		SeverityRating:     int(severity),
		VehicleDescription: *resp.VehicleDescription,
		LocationGuess:      *resp.LocationGuess,
	}, nil
}

func decodeStrict(text string, v interface{}) error {
	body := ExtractJSON(text)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedResponse, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrMalformedResponse, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is missing")
		case "min", "max":
			if e.Kind() == reflect.String {
				msgs = append(msgs, e.Field()+" is empty")
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s %v out of range", e.Field(), e.Value()))
		default:
			msgs = append(msgs, e.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// ExtractJSON returns the JSON object in a model reply. A reply that is
// already valid JSON is returned as is; a markdown code fence is unwrapped
// only when the reply starts with one, so backticks inside string values
// are left alone.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return text
	}

	if rest, ok := strings.CutPrefix(text, "```"); ok {
		end := strings.LastIndex(rest, "```")
		if end == -1 {
			return text
		}
		inner := strings.TrimSpace(rest[:end])
		return strings.TrimSpace(strings.TrimPrefix(inner, "json"))
	}

	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open == -1 || end < open {
		return text
	}
	return text[open : end+1]
}
