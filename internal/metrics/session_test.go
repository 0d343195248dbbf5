package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gauge.Write(metric))
	return metric.GetGauge().GetValue()
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func TestRecordSkipLabelsResult(t *testing.T) {
	applied := getCounterVecValue(t, skips, "next", "applied")
	ignored := getCounterVecValue(t, skips, "previous", "ignored")

	RecordSkip("next", true)
	RecordSkip("previous", false)

	assert.Equal(t, applied+1, getCounterVecValue(t, skips, "next", "applied"))
	assert.Equal(t, ignored+1, getCounterVecValue(t, skips, "previous", "ignored"))
}

func TestRecordPersistOutcome(t *testing.T) {
	ok := getCounterVecValue(t, persistResults, "success")
	bad := getCounterVecValue(t, persistResults, "failure")

	RecordPersist(nil)
	RecordPersist(errors.New("boom"))

	assert.Equal(t, ok+1, getCounterVecValue(t, persistResults, "success"))
	assert.Equal(t, bad+1, getCounterVecValue(t, persistResults, "failure"))
}

func TestTransitionAndCompletion(t *testing.T) {
	before := getCounterVecValue(t, stateTransitions, "playing", "completed")
	RecordTransition("playing", "completed")
	assert.Equal(t, before+1, getCounterVecValue(t, stateTransitions, "playing", "completed"))

	done := getCounterVecValue(t, completions, "focus")
	RecordCompletion("focus")
	assert.Equal(t, done+1, getCounterVecValue(t, completions, "focus"))
}

func TestGauges(t *testing.T) {
	SetTimerRemaining(90)
	assert.Equal(t, 90.0, getGaugeValue(t, timerRemaining))
	SetVolume(0.25)
	assert.Equal(t, 0.25, getGaugeValue(t, volume))
}

func TestPlayRejections(t *testing.T) {
	before := getCounterValue(t, playRejections)
	RecordPlayRejection()
	assert.Equal(t, before+1, getCounterValue(t, playRejections))
}
