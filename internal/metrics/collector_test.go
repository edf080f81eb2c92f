package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/tryon/internal/domain"
)

func TestCollector(t *testing.T) {
	c := NewCollector("tryon")
	_ = NewCollector("tryon") // separate registries do not clash

	c.RecordHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond, 15)
	c.RecordHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond, 15)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")))

	c.JobStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsInFlight))
	c.JobFinished(domain.JobStatusFailed, time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.jobsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsTotal.WithLabelValues("failed")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tryon_http_requests_total")
	assert.Contains(t, string(body), "tryon_tryon_jobs_total")
}
