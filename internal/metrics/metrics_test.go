package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics(t *testing.T) {
	m := NewRunMetrics()
	m.Findings.WithLabelValues("binance", "interval-over-previous-interval").Add(2)
	m.SymbolsScanned.WithLabelValues("okx").Add(20)
	start := time.Unix(1700000000, 0)
	m.ObserveRun(start, start.Add(90*time.Second), true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Findings.WithLabelValues("binance", "interval-over-previous-interval")))
	assert.Equal(t, float64(20), testutil.ToFloat64(m.SymbolsScanned.WithLabelValues("okx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs))
	assert.Equal(t, float64(90), testutil.ToFloat64(m.RunDuration))
	assert.Equal(t, float64(1700000090), testutil.ToFloat64(m.LastSuccess))
}

func TestPusher(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewRunMetrics()
	m.Runs.Inc()
	require.NoError(t, NewPusher(srv.URL, "volume_radar").Push(context.Background(), m))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/volume_radar"), path)

	// 未配置时不推送
	assert.False(t, NewPusher("", "volume_radar").Enabled())
	assert.NoError(t, NewPusher("", "volume_radar").Push(context.Background(), m))
}
