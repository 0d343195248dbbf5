package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Backend connection (audio generation + history)
	APIURL         string
	APIToken       string
	HistoryTimeout time.Duration

	// Server
	Port int

	// Session behavior
	Mode          string
	TrackDuration int     // seconds requested per rendering
	Volume        float64 // initial volume, 0..1
	Autoplay      bool

	// Scheduling
	ProgressInterval  time.Duration
	ProgressStep      float64
	CountdownInterval time.Duration
	FPS               int

	// Local output
	Player     string // external player command, "none" disables
	Activities string // optional YAML catalog override
	LogFile    string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		APIURL:         envStr("CALMWAVE_API_URL", "http://localhost:8000"),
		APIToken:       envStr("CALMWAVE_API_TOKEN", ""),
		HistoryTimeout: envDuration("CALMWAVE_HISTORY_TIMEOUT", 10*time.Second),

		Port: envInt("CALMWAVE_PORT", 8080),

		Mode:          envStr("CALMWAVE_MODE", "focus"),
		TrackDuration: envInt("CALMWAVE_TRACK_DURATION", 600),
		Volume:        envFloat("CALMWAVE_VOLUME", 0.8),
		Autoplay:      envBool("CALMWAVE_AUTOPLAY", true),

		ProgressInterval:  envDuration("CALMWAVE_PROGRESS_INTERVAL", 100*time.Millisecond),
		ProgressStep:      envFloat("CALMWAVE_PROGRESS_STEP", 0.1),
		CountdownInterval: envDuration("CALMWAVE_COUNTDOWN_INTERVAL", time.Second),
		FPS:               envInt("CALMWAVE_FPS", 30),

		Player:     envStr("CALMWAVE_PLAYER", "ffplay"),
		Activities: envStr("CALMWAVE_ACTIVITIES", ""),
		LogFile:    envStr("CALMWAVE_LOG_FILE", ""),
	}
}

// FrameInterval is the visualizer frame period.
func (c Config) FrameInterval() time.Duration {
	fps := c.FPS
	if fps <= 0 {
		fps = 30
	}
	return time.Second / time.Duration(fps)
}

// PlayerEnabled reports whether an external player should be launched.
func (c Config) PlayerEnabled() bool {
	return c.Player != "" && !strings.EqualFold(c.Player, "none")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("250ms", "2s").
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
