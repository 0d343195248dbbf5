package session

import (
	"fmt"

	"github.com/satindergrewal/calmwave/internal/activity"
	"github.com/satindergrewal/calmwave/internal/audiosource"
	"github.com/satindergrewal/calmwave/internal/history"
	"github.com/satindergrewal/calmwave/internal/mode"
)

// State is the playback state machine position.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Snapshot is a read-only copy of the session handed to hosts and observers.
type Snapshot struct {
	SessionID  string                 `json:"session_id"`
	Mounted    bool                   `json:"mounted"`
	State      State                  `json:"state"`
	Playing    bool                   `json:"playing"`
	Mode       mode.Mode              `json:"mode"`
	ModeLabel  string                 `json:"mode_label"`
	Activity   activity.Activity      `json:"activity"`
	Timer      TimerSnapshot          `json:"timer"`
	Progress   float64                `json:"progress"`
	Volume     float64                `json:"volume"`
	Seed       int64                  `json:"seed"`
	HasSeed    bool                   `json:"has_seed"`
	Title      string                 `json:"title"`
	History    []int64                `json:"history"`
	CanRetreat bool                   `json:"can_retreat"`
	Audio      audiosource.Descriptor `json:"-"`
	Result     *history.Result        `json:"result,omitempty"`
}

// TimerSnapshot describes the active timer policy.
type TimerSnapshot struct {
	Kind             string  `json:"kind"`
	TargetSeconds    float64 `json:"target_seconds,omitempty"`
	RemainingSeconds int     `json:"remaining_seconds"`
	ElapsedSeconds   int     `json:"elapsed_seconds"`
}
