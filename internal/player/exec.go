package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// ExecOutput pipes each rendering into an external player's stdin.
type ExecOutput struct {
	Command string
	// Args builds the argument list for a volume in [0,1]. When nil,
	// ffplay-compatible arguments are used.
	Args func(volume float64) []string
}

// FFplayArgs reads from stdin without a window and exits at end of stream.
func FFplayArgs(volume float64) []string {
	return []string{
		"-nodisp", "-autoexit", "-loglevel", "quiet",
		"-volume", strconv.Itoa(int(volume*100 + 0.5)),
		"-i", "pipe:0",
	}
}

// Ready reports whether the command can be found.
func (o ExecOutput) Ready() error {
	if _, err := exec.LookPath(o.Command); err != nil {
		return fmt.Errorf("output %q unavailable: %w", o.Command, err)
	}
	return nil
}

// Start launches the command. The process is killed when ctx is cancelled.
func (o ExecOutput) Start(ctx context.Context, volume float64) (io.WriteCloser, error) {
	args := o.Args
	if args == nil {
		args = FFplayArgs
	}
	cmd := exec.CommandContext(ctx, o.Command, args(volume)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", o.Command, err)
	}
	return &procWriter{WriteCloser: stdin, cmd: cmd}, nil
}

type procWriter struct {
	io.WriteCloser
	cmd *exec.Cmd
}

// Close ends the input and waits for the process to exit.
func (w *procWriter) Close() error {
	err := w.WriteCloser.Close()
	if werr := w.cmd.Wait(); werr != nil {
		var exitErr *exec.ExitError
		if errors.As(werr, &exitErr) && w.cmd.ProcessState != nil && !w.cmd.ProcessState.Exited() {
			// killed by context cancellation
			return nil
		}
		return werr
	}
	return err
}

// Discard is an output that accepts and drops every rendering.
type Discard struct{}

// Ready always succeeds.
func (Discard) Ready() error { return nil }

// Start returns a sink that drops all bytes.
func (Discard) Start(context.Context, float64) (io.WriteCloser, error) {
	return nopCloser{io.Discard}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
