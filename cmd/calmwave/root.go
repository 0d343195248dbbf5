package main

import (
	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/config"
)

// options are the flags shared by every command. Flags left unset keep the
// environment configuration.
type options struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	o := &options{cfg: config.Load()}

	root := &cobra.Command{
		Use:   "calmwave",
		Short: "Generated ambient sessions for focus, relaxation, sleep and meditation",
		Long: `calmwave plays endlessly generated ambient audio in one of four modes.

Sessions run until stopped or until a countdown timer completes; completed
sessions are recorded to your listening history.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.cfg.APIURL, "api-url", o.cfg.APIURL, "Base URL of the audio and history service")
	root.PersistentFlags().StringVar(&o.cfg.APIToken, "token", o.cfg.APIToken, "Bearer token for history")

	root.AddCommand(
		newPlayCmd(o),
		newServeCmd(o),
		newHistoryCmd(o),
		newModesCmd(o),
		newRenderCmd(),
	)
	return root
}
