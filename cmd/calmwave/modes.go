package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/activity"
	"github.com/satindergrewal/calmwave/internal/mode"
)

type modeListing struct {
	mode.Info
	Activities []activity.Activity `json:"activities"`
}

func newModesCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List modes and their activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(o.cfg)
			if err != nil {
				return err
			}
			listing := listModes(catalog)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			return writeModes(cmd.OutOrStdout(), listing)
		},
	}
	cmd.Flags().StringVar(&o.cfg.Activities, "activities", o.cfg.Activities, "YAML activity catalog override")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func listModes(catalog *activity.Catalog) []modeListing {
	var out []modeListing
	for _, m := range mode.All() {
		info, _ := mode.Lookup(m)
		out = append(out, modeListing{Info: info, Activities: catalog.ActivitiesFor(m)})
	}
	return out
}

func writeModes(w io.Writer, listing []modeListing) error {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	for _, l := range listing {
		name := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(l.Accent)).Render(l.Label)
		if _, err := fmt.Fprintf(w, "%s  %s\n", name, muted.Render(l.Description)); err != nil {
			return err
		}
		for _, a := range l.Activities {
			if _, err := fmt.Fprintf(w, "  %-14s %s\n", a.ID, muted.Render(a.Label)); err != nil {
				return err
			}
		}
	}
	return nil
}
