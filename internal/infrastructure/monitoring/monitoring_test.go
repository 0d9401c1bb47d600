package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"canvasrelay/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.SetSessionStats(domain.SessionStats{Participants: 2, Canvases: 3, Segments: 7, Connections: 4})
	c.RecordConnection()
	c.RecordMessageReceived("draw")
	c.RecordMessageReceived("draw")
	c.RecordMessageSent(domain.MessageDraw, 3)
	c.RecordMessageDropped("INVALID_INPUT")
	c.RecordSignalRelayed(domain.SignalOffer)
	c.ObserveEventDuration("draw", time.Millisecond)

	families := gather(t, reg)

	assert.Equal(t, 2.0, families["canvasrelay_participants"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 4.0, families["canvasrelay_connections"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 7.0, families["canvasrelay_canvas_segments"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1.0, families["canvasrelay_connections_total"].GetMetric()[0].GetCounter().GetValue())

	received := families["canvasrelay_messages_received_total"].GetMetric()
	require.Len(t, received, 1)
	assert.Equal(t, "draw", labelValue(received[0], "type"))
	assert.Equal(t, 2.0, received[0].GetCounter().GetValue())

	assert.Equal(t, 3.0, families["canvasrelay_messages_sent_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, "INVALID_INPUT", labelValue(families["canvasrelay_messages_dropped_total"].GetMetric()[0], "reason"))
	assert.Equal(t, "offer", labelValue(families["canvasrelay_signals_relayed_total"].GetMetric()[0], "kind"))
	assert.Equal(t, uint64(1), families["canvasrelay_event_handling_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestPrometheusCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusCollector(prometheus.NewRegistry())
		NewPrometheusCollector(prometheus.NewRegistry())
	})
}

func TestHealthChecker_CheckAll(t *testing.T) {
	h := NewHealthChecker(zaptest.NewLogger(t).Sugar())
	h.AddCheck("hub", func(ctx context.Context) (bool, error) { return true, nil }, 0, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Checks["hub"])

	h.AddCheck("down", func(ctx context.Context) (bool, error) { return false, nil }, 0, time.Second)
	h.AddCheck("broken", func(ctx context.Context) (bool, error) { return false, errors.New("boom") }, 0, time.Second)

	status = h.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Checks["hub"])
	assert.Equal(t, "check failed", status.Checks["down"])
	assert.Equal(t, "boom", status.Checks["broken"])
}

func TestHealthChecker_CheckTimeout(t *testing.T) {
	h := NewHealthChecker(zaptest.NewLogger(t).Sugar())
	h.AddCheck("slow", func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}, 0, 10*time.Millisecond)

	status := h.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"])
}

func TestHealthChecker_BackgroundChecks(t *testing.T) {
	h := NewHealthChecker(zaptest.NewLogger(t).Sugar())
	calls := make(chan struct{}, 1)
	h.AddCheck("tick", func(ctx context.Context) (bool, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return true, nil
	}, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.StartBackgroundChecks(ctx)

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("background check did not run")
	}
}
