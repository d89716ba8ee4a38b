package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestHandler_ExposesMetrics(t *testing.T) {
	Register()
	WorkflowTransitionsTotal.WithLabelValues("idle", "redacting").Inc()
	PersistenceFailuresTotal.WithLabelValues("file", "save").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "taxiwatch_workflow_transitions_total")
	assert.Contains(t, rr.Body.String(), "taxiwatch_store_persistence_failures_total")
	assert.GreaterOrEqual(t, testutil.ToFloat64(WorkflowTransitionsTotal.WithLabelValues("idle", "redacting")), 1.0)
}
