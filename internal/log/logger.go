// Package log configures the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Service string    // optional service name attached to every entry
}

var (
	mu   sync.RWMutex
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger. Only the first call takes effect.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
		}

		service := cfg.Service
		if service == "" {
			service = "calmwave"
		}

		mu.Lock()
		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
		mu.Unlock()
	})
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	Configure(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// Nop returns a disabled logger, used by tests and by callers that pass no logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
