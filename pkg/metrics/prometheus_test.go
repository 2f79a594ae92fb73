package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFetch("/coins/markets", "hit", 0)
	r.RecordFetch("/coins/markets", "live", 150*time.Millisecond)
	r.RecordFetch("/coins/markets", "live", 90*time.Millisecond)
	r.RecordScan("ok", map[string]int{"trend-continuation": 2, "meme-pump-short": 1})
	r.RecordScan("degraded", nil)
	r.RecordError("signal_store")
	r.RecordLatency("scan", 0.4)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamFetches.WithLabelValues("/coins/markets", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.upstreamFetches.WithLabelValues("/coins/markets", "live")))
	// hits never reach the upstream
	assert.Equal(t, 1, testutil.CollectAndCount(r.upstreamLatency))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scans.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scans.WithLabelValues("degraded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalsEmitted.WithLabelValues("trend-continuation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("signal_store")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tradergenie_operation_duration_seconds")
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NotPanics(t, func() {
		n.RecordFetch("x", "hit", 0)
		n.RecordScan("ok", nil)
		n.RecordError("x")
		n.RecordLatency("x", 1)
	})
}
