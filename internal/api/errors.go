package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/satindergrewal/calmwave/internal/loop"
	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/session"
	"github.com/satindergrewal/calmwave/internal/timer"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as {"error": ...}
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mode.ErrUnknownMode),
		errors.Is(err, session.ErrUnknownActivity),
		errors.Is(err, timer.ErrInvalidDuration),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotMounted):
		return http.StatusConflict
	case errors.Is(err, loop.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
