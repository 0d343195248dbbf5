// Package player follows the session's audio descriptor by streaming each
// rendering into an output sink. Playback is best effort: failures are
// logged and never change session state.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/satindergrewal/calmwave/internal/audiosource"
)

// ErrNoSource is returned by Play before any descriptor has been loaded.
var ErrNoSource = errors.New("player: no source loaded")

// Source opens the byte stream for a rendering.
type Source interface {
	Open(ctx context.Context, d audiosource.Descriptor) (io.ReadCloser, error)
}

// Output starts a sink for one rendering. Closing the returned writer ends
// playback of that rendering and waits for the sink to finish.
type Output interface {
	Ready() error
	Start(ctx context.Context, volume float64) (io.WriteCloser, error)
}

// Player streams the loaded descriptor while playing. Loading a different
// descriptor supersedes the stream in flight; it is never queued.
type Player struct {
	src    Source
	out    Output
	logger zerolog.Logger

	mu      sync.Mutex
	desc    audiosource.Descriptor
	loaded  bool
	running bool
	cancel  context.CancelFunc
	volume  float64
	gate    *gate
	wg      sync.WaitGroup
}

// New creates a paused player.
func New(src Source, out Output, logger zerolog.Logger) *Player {
	return &Player{src: src, out: out, logger: logger, volume: 1, gate: newGate()}
}

// Load makes d the current rendering. An identical descriptor is ignored.
func (p *Player) Load(d audiosource.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded && p.desc == d {
		return
	}
	p.stopLocked()
	p.desc = d
	p.loaded = true
	p.logger.Debug().Str("descriptor", d.String()).Msg("source loaded")
	if p.gate.isOpen() {
		p.startLocked()
	}
}

// Play resumes output, starting the stream for the loaded descriptor if it
// is not already running. It may reject, e.g. when the sink is unavailable.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return ErrNoSource
	}
	if err := p.out.Ready(); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	p.gate.open()
	if !p.running {
		p.startLocked()
	}
	return nil
}

// Pause holds the stream in place; Play continues from the same position.
func (p *Player) Pause() {
	p.gate.close()
}

// Playing reports whether output is currently allowed.
func (p *Player) Playing() bool { return p.gate.isOpen() }

// SetVolume stores v clamped to [0,1]. The sink receives it when the next
// rendering starts.
func (p *Player) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	p.mu.Lock()
	p.volume = math.Max(0, math.Min(1, v))
	p.mu.Unlock()
}

// Volume returns the stored volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Stop aborts the stream, pauses, and waits for the stream goroutine to exit.
func (p *Player) Stop() {
	p.gate.close()
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
}

func (p *Player) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	d, vol := p.desc, p.volume
	p.wg.Add(1)
	go p.stream(ctx, d, vol)
}

func (p *Player) stream(ctx context.Context, d audiosource.Descriptor, volume float64) {
	defer p.wg.Done()
	logger := p.logger.With().Str("descriptor", d.String()).Logger()
	defer p.finished(ctx)

	body, err := p.src.Open(ctx, d)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn().Err(err).Msg("open audio stream failed")
		}
		return
	}
	defer body.Close()

	w, err := p.out.Start(ctx, volume)
	if err != nil {
		logger.Warn().Err(err).Msg("start output failed")
		return
	}
	n, err := io.Copy(w, &gatedReader{ctx: ctx, r: body, g: p.gate})
	closeErr := w.Close()
	switch {
	case ctx.Err() != nil:
		logger.Debug().Int64("bytes", n).Msg("stream superseded")
	case err != nil:
		logger.Warn().Err(err).Int64("bytes", n).Msg("stream interrupted")
	case closeErr != nil:
		logger.Warn().Err(closeErr).Msg("output exited with error")
	default:
		logger.Info().Int64("bytes", n).Msg("rendering finished")
	}
}

// finished clears the running flag unless a newer stream has replaced this one.
func (p *Player) finished(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// gatedReader blocks reads while the gate is closed.
type gatedReader struct {
	ctx context.Context
	r   io.Reader
	g   *gate
}

func (g *gatedReader) Read(b []byte) (int, error) {
	if err := g.g.wait(g.ctx); err != nil {
		return 0, err
	}
	return g.r.Read(b)
}

// gate is open while the player is playing.
type gate struct {
	mu sync.Mutex
	ch chan struct{} // closed while open
	on bool
}

func newGate() *gate { return &gate{ch: make(chan struct{})} }

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.on {
		g.on = true
		close(g.ch)
	}
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.on {
		g.on = false
		g.ch = make(chan struct{})
	}
}

func (g *gate) isOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
