package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("taxiwatch", &buf).
		WithComponent("workflow").
		WithReportID("r-1").
		WithQueue("report.archiver").
		WithCorrelationID("c-1")

	log.Info().Msg("report finalized")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "taxiwatch", entry["service"])
	assert.Equal(t, "workflow", entry["component"])
	assert.Equal(t, "r-1", entry["report_id"])
	assert.Equal(t, "report.archiver", entry["queue"])
	assert.Equal(t, "c-1", entry["correlation_id"])
	assert.Equal(t, "report finalized", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestWithComponent_DoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter("taxiwatch", &buf)
	_ = parent.WithComponent("admin")

	parent.Info().Msg("x")
	assert.NotContains(t, buf.String(), "admin")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error().Msg("discarded") })
}
