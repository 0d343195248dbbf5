package main

import (
	"fmt"
	"image/png"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

// Default braille grid for --braille.
const (
	brailleCols = 60
	brailleRows = 8
)

type renderFlags struct {
	mode    string
	width   int
	height  int
	ratio   float64
	frames  int
	paused  bool
	output  string
	braille bool
}

func newRenderCmd() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one visualizer frame",
		Long: `Render the waveform for a mode after a number of frames.

Examples:
  calmwave render -m sleep -o sleep.png          # PNG at 640x360
  calmwave render -m focus --frames 300 --ratio 2 -o focus@2x.png
  calmwave render -m meditate --braille          # text frame on stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mode.Parse(f.mode)
			if err != nil {
				return err
			}
			if f.frames < 0 {
				return fmt.Errorf("frames must not be negative")
			}
			if f.braille {
				cols, rows := brailleCols, brailleRows
				if cmd.Flags().Changed("width") {
					cols = f.width
				}
				if cmd.Flags().Changed("height") {
					rows = f.height
				}
				e := visualizer.New(visualizer.Surface{Width: cols * 2, Height: rows * 4, Ratio: 1})
				advance(e, f.frames, !f.paused)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(visualizer.Braille(e.Lines(m), cols, rows), "\n"))
				return err
			}
			if f.output == "" {
				return fmt.Errorf("--output is required for PNG frames")
			}
			e := visualizer.New(visualizer.Surface{Width: f.width, Height: f.height, Ratio: f.ratio})
			advance(e, f.frames, !f.paused)
			if err := writePNG(f.output, e, m); err != nil {
				return err
			}
			w, h := e.Surface().Device()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", f.output, w, h)
			return err
		},
	}
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(mode.Focus), "Mode to render")
	cmd.Flags().IntVar(&f.width, "width", 640, "Surface width; braille columns with --braille")
	cmd.Flags().IntVar(&f.height, "height", 360, "Surface height; braille rows with --braille")
	cmd.Flags().Float64Var(&f.ratio, "ratio", 1, "Device pixel ratio")
	cmd.Flags().IntVar(&f.frames, "frames", 60, "Frames to advance before drawing")
	cmd.Flags().BoolVar(&f.paused, "paused", false, "Advance at the paused rate")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "PNG output path")
	cmd.Flags().BoolVar(&f.braille, "braille", false, "Print a braille frame instead of a PNG")
	return cmd
}

func advance(e *visualizer.Engine, frames int, playing bool) {
	for i := 0; i < frames; i++ {
		e.Advance(playing)
	}
}

func writePNG(path string, e *visualizer.Engine, m mode.Mode) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending frame: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := png.Encode(pending, e.Draw(m)); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
