package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthAttempt_CountsByLabels(t *testing.T) {
	m := New()

	m.AuthAttempt("login", "ok")
	m.AuthAttempt("login", "ok")
	m.AuthAttempt("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials")))
}

func TestAuthAttempt_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.AuthAttempt("login", "ok") })
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/pets", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `petcare_http_requests_total{method="GET",route="/pets",status="200"} 1`)
}
