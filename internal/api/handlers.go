package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/timer"
	"github.com/satindergrewal/calmwave/internal/visualizer"
)

// maxBody bounds control request bodies.
const maxBody = 4 << 10

// mutate runs op on the loop and answers with the resulting snapshot.
func (s *server) mutate(w http.ResponseWriter, r *http.Request, op func(c *session.Controller) error) {
	var (
		snap  session.Snapshot
		opErr error
	)
	err := s.loop.Do(r.Context(), func() {
		opErr = op(s.ctrl)
		snap = s.ctrl.Snapshot()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if opErr != nil {
		writeError(w, opErr)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var snap session.Snapshot
	if err := s.loop.Do(r.Context(), func() { snap = s.ctrl.Snapshot() }); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, (*session.Controller).TogglePlay)
}

func (s *server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, (*session.Controller).Restart)
}

func (s *server) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch req.Direction {
	case "next", "":
		s.mutate(w, r, (*session.Controller).SkipNext)
	case "previous", "prev", "back":
		s.mutate(w, r, (*session.Controller).SkipPrevious)
	default:
		writeError(w, fmt.Errorf("%w: direction must be next or previous", errBadRequest))
	}
}

func (s *server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := mode.Parse(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, func(c *session.Controller) error { return c.SelectMode(m) })
}

func (s *server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, func(c *session.Controller) error { return c.SelectActivity(req.ID) })
}

func (s *server) handleTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Infinite bool     `json:"infinite"`
		Minutes  *float64 `json:"minutes"`
		Seconds  *float64 `json:"seconds"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	var p timer.Policy
	switch {
	case req.Infinite:
		p = timer.InfinitePolicy()
	case req.Seconds != nil:
		p = timer.CountdownPolicy(*req.Seconds)
	case req.Minutes != nil:
		p = timer.CountdownPolicy(*req.Minutes * 60)
	default:
		writeError(w, fmt.Errorf("%w: one of infinite, minutes or seconds is required", errBadRequest))
		return
	}
	s.mutate(w, r, func(c *session.Controller) error { return c.SetTimerPolicy(p) })
}

func (s *server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume *float64 `json:"volume"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Volume == nil {
		writeError(w, fmt.Errorf("%w: volume is required", errBadRequest))
		return
	}
	v := *req.Volume
	s.mutate(w, r, func(c *session.Controller) error {
		c.SetVolume(v)
		return nil
	})
}

func (s *server) handleModes(w http.ResponseWriter, r *http.Request) {
	out := make([]mode.Info, 0, len(mode.All()))
	for _, m := range mode.All() {
		if info, ok := mode.Lookup(m); ok {
			out = append(out, info)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleActivities(w http.ResponseWriter, r *http.Request) {
	m, err := mode.Parse(chi.URLParam(r, "mode"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.acts.ActivitiesFor(m))
}

// handleFrame renders the current visualizer frame. Optional w, h and ratio
// query parameters resize the surface first; the time accumulator carries
// over.
func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	resize, err := surfaceFromQuery(r, s)
	if err != nil {
		writeError(w, err)
		return
	}
	var frame *image.RGBA
	err = s.loop.Do(r.Context(), func() {
		if resize != nil && *resize != s.engine.Surface() {
			s.engine.Resize(*resize)
		}
		img := s.engine.Draw(s.ctrl.Snapshot().Mode)
		frame = image.NewRGBA(img.Bounds())
		copy(frame.Pix, img.Pix)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

const maxSurface = 4096

func surfaceFromQuery(r *http.Request, s *server) (*visualizer.Surface, error) {
	q := r.URL.Query()
	if q.Get("w") == "" && q.Get("h") == "" && q.Get("ratio") == "" {
		return nil, nil
	}
	var cur visualizer.Surface
	if err := s.loop.Do(r.Context(), func() { cur = s.engine.Surface() }); err != nil {
		return nil, err
	}
	parseDim := func(key string, def int) (int, error) {
		v := q.Get(key)
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSurface {
			return 0, fmt.Errorf("%w: %s must be 1..%d", errBadRequest, key, maxSurface)
		}
		return n, nil
	}
	width, err := parseDim("w", cur.Width)
	if err != nil {
		return nil, err
	}
	height, err := parseDim("h", cur.Height)
	if err != nil {
		return nil, err
	}
	ratio := cur.Ratio
	if v := q.Get("ratio"); v != "" {
		ratio, err = strconv.ParseFloat(v, 64)
		if err != nil || ratio <= 0 || ratio > 4 {
			return nil, fmt.Errorf("%w: ratio must be in (0,4]", errBadRequest)
		}
	}
	return &visualizer.Surface{Width: width, Height: height, Ratio: ratio}, nil
}
