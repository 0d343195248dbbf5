package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/calmwave/internal/api"
	"github.com/satindergrewal/calmwave/internal/log"
	"github.com/satindergrewal/calmwave/internal/loop"
	"github.com/satindergrewal/calmwave/internal/stream"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

// healthWait bounds the startup wait for the audio backend.
const healthWait = 2 * time.Minute

func newServeCmd(o *options) *cobra.Command {
	var (
		f         sessionFlags
		rateLimit int
		width     int
		height    int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless session behind the HTTP control API",
		Long: `Run one session without a terminal UI. The session is controlled over
HTTP, mirrored to browsers via Server-Sent Events and WebRTC data channels,
and exposes Prometheus metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), o, f, serveOptions{
				rateLimit: rateLimit,
				surface:   visualizer.Surface{Width: width, Height: height, Ratio: 1},
			})
		},
	}
	bindSessionFlags(cmd, o, &f)
	cmd.Flags().IntVarP(&o.cfg.Port, "port", "p", o.cfg.Port, "HTTP listen port")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 120, "Control requests per minute per client; 0 disables")
	cmd.Flags().IntVar(&width, "frame-width", 640, "Visualizer frame width")
	cmd.Flags().IntVar(&height, "frame-height", 360, "Visualizer frame height")
	return cmd
}

type serveOptions struct {
	rateLimit int
	surface   visualizer.Surface
}

func runServe(parent context.Context, o *options, f sessionFlags, so serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	log.Configure(log.Config{})
	logger := log.WithComponent("serve")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := loop.New(256, log.WithComponent("loop"))
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go l.Run(loopCtx)
	defer func() {
		stopLoop()
		<-l.Done()
	}()

	s, err := newStack(o.cfg, f, l)
	if err != nil {
		return err
	}
	if o.cfg.APIToken == "" {
		logger.Warn().Msg("no API token: completed sessions will not be recorded")
	}

	healthCtx, cancelHealth := context.WithTimeout(ctx, healthWait)
	if err := s.source.WaitForHealthy(healthCtx, 2*time.Second); err != nil {
		logger.Warn().Err(err).Msg("audio backend not reachable, continuing without it")
	}
	cancelHealth()
	if ctx.Err() != nil {
		return nil
	}

	broadcaster := stream.NewBroadcaster()
	events := stream.NewEventsHandler(broadcaster, log.WithComponent("events"))
	rtc := stream.NewWebRTCHandler(broadcaster, log.WithComponent("webrtc"))
	engine := visualizer.New(so.surface)

	var (
		stopFrames = func() {}
		mountErr   error
	)
	if err := l.Do(ctx, func() {
		s.ctrl.Observe(broadcaster.Publish)
		if mountErr = s.mount(); mountErr != nil {
			return
		}
		stopFrames = visualizer.Drive(l, o.cfg.FrameInterval(), engine, s.ctrl.Visual, nil)
	}); err != nil {
		return err
	}
	if mountErr != nil {
		return mountErr
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", o.cfg.Port),
		Handler: api.NewRouter(api.Config{
			Loop:          l,
			Controller:    s.ctrl,
			Activities:    s.catalog,
			Engine:        engine,
			Events:        events,
			Offer:         rtc,
			Logger:        log.WithComponent("api"),
			MutationLimit: so.rateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// Long-lived event streams end with the process context.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	if o.cfg.Activities != "" {
		g.Go(func() error {
			if err := s.catalog.Watch(gctx, o.cfg.Activities, log.WithComponent("activity")); err != nil {
				logger.Warn().Err(err).Msg("activity catalog watcher stopped")
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("mode", string(s.mode)).Msg("control API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown")
		}
		rtc.Close()
		if err := l.Do(shutdownCtx, func() {
			stopFrames()
			s.ctrl.Unmount()
		}); err != nil {
			logger.Warn().Err(err).Msg("session teardown")
		}
		return nil
	})

	return g.Wait()
}
