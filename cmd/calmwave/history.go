package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/history"
)

func newHistoryCmd(o *options) *cobra.Command {
	var (
		skip   int
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed sessions",
		Long: `List completed sessions recorded for the authenticated user, most recent first.

Examples:
  calmwave history                 # latest 20 sessions
  calmwave history --limit 50      # more
  calmwave history --json          # raw entries`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || skip < 0 {
				return fmt.Errorf("limit must be positive and skip not negative")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client := history.NewClient(o.cfg.APIURL, o.cfg.APIToken, o.cfg.HistoryTimeout)
			entries, err := client.List(ctx, skip, limit)
			if errors.Is(err, history.ErrUnauthenticated) {
				return fmt.Errorf("%w: set CALMWAVE_API_TOKEN or --token", err)
			}
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "Entries to skip")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func writeHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	var total int
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "MODE", "DURATION")
	for _, e := range entries {
		total += e.DurationSeconds
		started := "-"
		if !e.StartedAt.IsZero() {
			started = e.StartedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(started, e.Mode.Label(), minutes(e.DurationSeconds))
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d sessions, %s total\n", len(entries), minutes(total))
	return err
}

func minutes(seconds int) string {
	m := seconds / 60
	if m < 60 {
		return strconv.Itoa(m) + " min"
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}
