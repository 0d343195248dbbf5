package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/log"
	"github.com/satindergrewal/calmwave/internal/loop"
	"github.com/satindergrewal/calmwave/internal/tui"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

func newPlayCmd(o *options) *cobra.Command {
	var f sessionFlags
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal",
		Long: `Play a session with a live waveform in the terminal.

Examples:
  calmwave play                      # focus, plays until you quit
  calmwave play -m sleep -t 45       # sleep with a 45 minute countdown
  calmwave play --player none        # visuals and timer only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), o, f)
		},
	}
	bindSessionFlags(cmd, o, &f)
	return cmd
}

func runPlay(parent context.Context, o *options, f sessionFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	// The terminal belongs to the UI; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if o.cfg.LogFile != "" {
		file, err := os.OpenFile(o.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		out = file
	}
	log.Configure(log.Config{Output: out})
	logger := log.WithComponent("play")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := loop.New(64, log.WithComponent("loop"))
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
	if s.hasTimer {
		logger.Info().Str("policy", s.initial.String()).Msg("countdown requested")
	}

	feed := tui.NewFeed(visualizer.New(visualizer.Surface{Width: 1, Height: 1, Ratio: 1}))
	var (
		stopFrames = func() {}
		mountErr   error
	)
	if err := l.Do(ctx, func() {
		s.ctrl.Observe(feed.Publish)
		if mountErr = s.mount(); mountErr != nil {
			return
		}
		stopFrames = visualizer.Drive(l, o.cfg.FrameInterval(), feed.Engine(), s.ctrl.Visual, feed.Frame)
	}); err != nil {
		return err
	}
	if mountErr != nil {
		return mountErr
	}

	p := tea.NewProgram(tui.New(ctx, l, s.ctrl, s.catalog, feed), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	teardown, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := l.Do(teardown, func() {
		stopFrames()
		s.ctrl.Unmount()
	}); err != nil {
		logger.Warn().Err(err).Msg("session teardown")
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("terminal ui: %w", runErr)
	}
	return nil
}
