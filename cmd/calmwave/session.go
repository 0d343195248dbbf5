package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/activity"
	"github.com/satindergrewal/calmwave/internal/audiosource"
	"github.com/satindergrewal/calmwave/internal/config"
	"github.com/satindergrewal/calmwave/internal/history"
	"github.com/satindergrewal/calmwave/internal/log"
	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/player"
	"github.com/satindergrewal/calmwave/internal/sequencer"
	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/timer"
)

// sessionFlags are the flags shared by play and serve.
type sessionFlags struct {
	minutes    int
	noAutoplay bool
}

func bindSessionFlags(cmd *cobra.Command, o *options, f *sessionFlags) {
	cmd.Flags().StringVarP(&o.cfg.Mode, "mode", "m", o.cfg.Mode, "Starting mode: "+strings.Join(mode.Names(), ", "))
	cmd.Flags().Float64Var(&o.cfg.Volume, "volume", o.cfg.Volume, "Initial volume, 0 to 1")
	cmd.Flags().StringVar(&o.cfg.Player, "player", o.cfg.Player, "External player command, or none")
	cmd.Flags().StringVar(&o.cfg.Activities, "activities", o.cfg.Activities, "YAML activity catalog override")
	cmd.Flags().IntVarP(&f.minutes, "timer", "t", 0, "Countdown in minutes; 0 plays until stopped")
	cmd.Flags().BoolVar(&f.noAutoplay, "no-autoplay", false, "Start paused")
}

// stack is one wired session.
type stack struct {
	mode     mode.Mode
	catalog  *activity.Catalog
	source   *audiosource.Client
	player   *player.Player
	ctrl     *session.Controller
	initial  timer.Policy
	hasTimer bool
}

func loadCatalog(cfg config.Config) (*activity.Catalog, error) {
	if cfg.Activities == "" {
		return activity.Default(), nil
	}
	return activity.Load(cfg.Activities)
}

func newStack(cfg config.Config, f sessionFlags, sched session.Scheduler) (*stack, error) {
	m, err := mode.Parse(cfg.Mode)
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	source := audiosource.NewClient(cfg.APIURL, log.WithComponent("audiosource"))
	var out player.Output = player.Discard{}
	if cfg.PlayerEnabled() {
		out = player.ExecOutput{Command: cfg.Player}
	}
	pl := player.New(source, out, log.WithComponent("player"))

	var store session.HistoryStore
	if cfg.APIToken != "" {
		store = history.NewClient(cfg.APIURL, cfg.APIToken, cfg.HistoryTimeout)
	}

	ctrl := session.New(session.Deps{
		Activities: catalog,
		Audio:      pl,
		History:    store,
		Scheduler:  sched,
		Seeds:      sequencer.TimeSeeds(),
		Logger:     log.WithComponent("session"),
	}, session.Options{
		ProgressInterval:  cfg.ProgressInterval,
		CountdownInterval: cfg.CountdownInterval,
		ProgressStep:      cfg.ProgressStep,
		TrackDuration:     cfg.TrackDuration,
		Autoplay:          cfg.Autoplay && !f.noAutoplay,
		Volume:            cfg.Volume,
		PersistTimeout:    cfg.HistoryTimeout,
	})

	s := &stack{mode: m, catalog: catalog, source: source, player: pl, ctrl: ctrl}
	if f.minutes < 0 {
		return nil, fmt.Errorf("%w: timer must not be negative", timer.ErrInvalidDuration)
	}
	if f.minutes > 0 {
		s.initial, s.hasTimer = timer.Minutes(f.minutes), true
	}
	return s, nil
}

// mount starts the session. Must run on the event loop.
func (s *stack) mount() error {
	if err := s.ctrl.Mount(s.mode); err != nil {
		return err
	}
	if s.hasTimer {
		return s.ctrl.SetTimerPolicy(s.initial)
	}
	return nil
}

// shutdownGrace bounds teardown work after a stop signal.
const shutdownGrace = 5 * time.Second
