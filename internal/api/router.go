// Package api serves the HTTP control surface of a headless session.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

// Runner executes fn on the session's event loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Config wires the router to a running session.
type Config struct {
	Loop       Runner
	Controller *session.Controller
	Activities session.ActivitySelector
	Engine     *visualizer.Engine
	Events     http.Handler // SSE stream, optional
	Offer      http.Handler // WebRTC signalling, optional
	Logger     zerolog.Logger

	// MutationLimit caps control requests per minute per client IP.
	// Zero disables the limit.
	MutationLimit int
}

type server struct {
	loop   Runner
	ctrl   *session.Controller
	acts   session.ActivitySelector
	engine *visualizer.Engine
	logger zerolog.Logger
}

// NewRouter builds the control API.
func NewRouter(cfg Config) http.Handler {
	s := &server{
		loop:   cfg.Loop,
		ctrl:   cfg.Controller,
		acts:   cfg.Activities,
		engine: cfg.Engine,
		logger: cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(requestLogger(cfg.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/modes", s.handleModes)
		r.Get("/modes/{mode}/activities", s.handleActivities)
		if s.engine != nil {
			r.Get("/frame.png", s.handleFrame)
		}
		if cfg.Events != nil {
			r.Method(http.MethodGet, "/events", cfg.Events)
		}

		r.Group(func(r chi.Router) {
			if cfg.MutationLimit > 0 {
				r.Use(rateLimit(cfg.MutationLimit, time.Minute))
			}
			r.Post("/play", s.handlePlay)
			r.Post("/restart", s.handleRestart)
			r.Post("/skip", s.handleSkip)
			r.Post("/mode", s.handleMode)
			r.Post("/activity", s.handleActivity)
			r.Post("/timer", s.handleTimer)
			r.Post("/volume", s.handleVolume)
		})
	})
	if cfg.Offer != nil {
		r.Handle("/offer", cfg.Offer)
	}
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate_limit_exceeded"})
		}),
	)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
