package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New("")

	m.RecordDeviceCommand("WAIST_RIGHT", "ok", 20*time.Millisecond)
	m.RecordDeviceCommand("WAIST_RIGHT", "ok", 30*time.Millisecond)
	m.RecordDeviceCommand("WAIST_RIGHT", "timeout", 2*time.Second)
	m.RecordReply("command", "ok")
	m.RecordIntent("keywords", "base")
	m.RecordTelemetry("ok")
	m.SetJointAngle("base", 110)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DeviceCommandsTotal.WithLabelValues("WAIST_RIGHT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeviceCommandsTotal.WithLabelValues("WAIST_RIGHT", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues("command", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentsTotal.WithLabelValues("keywords", "base")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TelemetryReadsTotal.WithLabelValues("ok")))
	assert.Equal(t, 110.0, testutil.ToFloat64(m.JointAngle.WithLabelValues("base")))
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.RecordHTTP("/chat", "POST", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_http_requests_total{method="POST",path="/chat",status="200"} 1`)
	assert.Contains(t, string(body), "test_http_request_duration_seconds_bucket")
}
