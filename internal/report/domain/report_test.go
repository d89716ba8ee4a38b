package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ca123456", "CA123456"},
		{"  cy 12-34 ", "CY 12-34"},
		{"", PlateNotProvided},
		{"   ", PlateNotProvided},
		{"N/A", "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlate(tt.in))
		})
	}
}

func TestReportInput_Merge(t *testing.T) {
	photo := &Photo{Data: []byte{1, 2, 3}, MimeType: "image/jpeg"}
	in := ReportInput{
		Description:  "Driver John Smith ran the light",
		LicensePlate: "ca 555",
		Location:     "12 Long Street",
		Photo:        photo,
	}

	merged := in.Merge(RedactionResult{
		SanitizedDescription: "Driver [REDACTED] ran the light",
		SanitizedLocation:    "[REDACTED] Long Street",
	})

	assert.Equal(t, "Driver [REDACTED] ran the light", merged.Description)
	assert.Equal(t, "[REDACTED] Long Street", merged.Location)
	assert.Equal(t, "ca 555", merged.LicensePlate)
	assert.Same(t, photo, merged.Photo)

	// the receiver is a copy
	assert.Equal(t, "Driver John Smith ran the light", in.Description)
}

func TestFinalize(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.FixedZone("SAST", 2*60*60))
	summary := AnalysisSummary{
		IncidentCategory:   "Ignoring Traffic Signal",
		Summary:            "Ran a red light",
		SeverityRating:     4,
		VehicleDescription: "White Toyota Quantum",
		LocationGuess:      "",
	}

	r := Finalize("id-1", at, " ca123456 ", summary)

	assert.Equal(t, "id-1", r.ID)
	assert.Equal(t, "CA123456", r.LicensePlate)
	assert.Equal(t, time.Date(2025, 3, 14, 7, 26, 53, 589000000, time.UTC), r.Timestamp)
	assert.Equal(t, summary.IncidentCategory, r.IncidentCategory)
	assert.Equal(t, summary.Summary, r.Summary)
	assert.Equal(t, 4, r.SeverityRating)
	assert.Equal(t, summary.VehicleDescription, r.VehicleDescription)
	assert.Equal(t, "", r.LocationGuess)
}

func TestStoredReport_JSONFieldNames(t *testing.T) {
	r := StoredReport{
		ID:                 "abc",
		LicensePlate:       "N/A",
		Timestamp:          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		IncidentCategory:   "Speeding",
		Summary:            "s",
		SeverityRating:     2,
		VehicleDescription: "v",
		LocationGuess:      "l",
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": "abc",
		"licensePlate": "N/A",
		"timestamp": "2025-01-02T03:04:05Z",
		"incident_category": "Speeding",
		"summary": "s",
		"severity_rating": 2,
		"vehicle_description": "v",
		"location_guess": "l"
	}`, string(b))
}

func TestReportInput_PhotoIsBase64(t *testing.T) {
	var in ReportInput
	err := json.Unmarshal([]byte(`{"description":"hello world!","photo":{"data":"AQID","mimeType":"image/png"}}`), &in)
	require.NoError(t, err)
	require.NotNil(t, in.Photo)
	assert.Equal(t, []byte{1, 2, 3}, in.Photo.Data)
	assert.Equal(t, "image/png", in.Photo.MimeType)
}

func TestDiff(t *testing.T) {
	in := ReportInput{Description: "Call me on 082 555 1234", Location: ""}

	d := Diff(in, RedactionResult{SanitizedDescription: "Call me on [REDACTED]", SanitizedLocation: ""})
	require.Len(t, d, 2)

	assert.Equal(t, "description", d[0].Field)
	assert.True(t, d[0].Changed)
	assert.Equal(t, "Call me on [REDACTED]", d[0].Sanitized)

	assert.Equal(t, "location", d[1].Field)
	assert.Equal(t, NotProvided, d[1].Original)
	assert.Equal(t, NotProvided, d[1].Sanitized)
	assert.False(t, d[1].Changed)
}

func TestDiff_WhitespaceOnlyChangeIsNotAChange(t *testing.T) {
	d := Diff(ReportInput{Description: "same text "}, RedactionResult{SanitizedDescription: " same text"})
	assert.False(t, d[0].Changed)
}

func TestStateKinds(t *testing.T) {
	states := map[StateKind]State{
		KindIdle:                 Idle{},
		KindRedacting:            Redacting{},
		KindAwaitingConfirmation: AwaitingConfirmation{},
		KindAnalyzing:            Analyzing{},
		KindResult:               Result{},
	}
	for kind, s := range states {
		assert.Equal(t, kind, s.Kind())
	}
}
