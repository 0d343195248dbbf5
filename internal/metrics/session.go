// Package metrics exposes Prometheus instruments for session playback.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_session_transitions_total",
		Help: "Session state machine transitions",
	}, []string{"from", "to"})

	skips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_skips_total",
		Help: "Track skip requests by direction and whether they changed the seed",
	}, []string{"direction", "result"})

	modeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_mode_changes_total",
		Help: "Mode selections by target mode",
	}, []string{"mode"})

	completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_sessions_completed_total",
		Help: "Countdown sessions that reached zero",
	}, []string{"mode"})

	persistResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_history_records_total",
		Help: "Session history writes by outcome",
	}, []string{"result"})

	audioLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calmwave_audio_loads_total",
		Help: "Audio descriptors handed to the player",
	}, []string{"mode"})

	playRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calmwave_play_rejections_total",
		Help: "Play requests the audio output refused",
	})

	timerRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calmwave_timer_remaining_seconds",
		Help: "Seconds left on the active countdown, 0 when infinite",
	})

	volume = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calmwave_volume",
		Help: "Current output volume in [0,1]",
	})
)

// RecordTransition counts a state change.
func RecordTransition(from, to string) {
	stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordSkip counts a skip; applied is false when the request was a no-op.
func RecordSkip(direction string, applied bool) {
	result := "ignored"
	if applied {
		result = "applied"
	}
	skips.WithLabelValues(direction, result).Inc()
}

// RecordModeChange counts a mode selection.
func RecordModeChange(mode string) {
	modeChanges.WithLabelValues(mode).Inc()
}

// RecordCompletion counts a finished countdown.
func RecordCompletion(mode string) {
	completions.WithLabelValues(mode).Inc()
}

// RecordPersist counts a history write outcome.
func RecordPersist(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	persistResults.WithLabelValues(result).Inc()
}

// RecordAudioLoad counts a descriptor change.
func RecordAudioLoad(mode string) {
	audioLoads.WithLabelValues(mode).Inc()
}

// RecordPlayRejection counts a refused play request.
func RecordPlayRejection() {
	playRejections.Inc()
}

// SetTimerRemaining reports the countdown value.
func SetTimerRemaining(seconds int) {
	timerRemaining.Set(float64(seconds))
}

// SetVolume reports the stored volume.
func SetVolume(v float64) {
	volume.Set(v)
}
