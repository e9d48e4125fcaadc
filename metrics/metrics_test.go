package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/sprints/{id}", "4xx"))
	RecordRequest("GET", "/api/sprints/{id}", 404, 0.01)
	RecordRequest("GET", "/api/sprints/{id}", 409, 0.02)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/sprints/{id}", "4xx"))
	assert.Equal(t, before+2, after)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(201))
	assert.Equal(t, "3xx", statusLabel(302))
	assert.Equal(t, "4xx", statusLabel(429))
	assert.Equal(t, "5xx", statusLabel(503))
}
