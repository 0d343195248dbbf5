package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/satindergrewal/calmwave/internal/session"
)

// EventsHandler streams snapshots as Server-Sent Events.
type EventsHandler struct {
	broadcaster *Broadcaster
	keepAlive   time.Duration
	logger      zerolog.Logger
}

// NewEventsHandler creates an SSE handler.
func NewEventsHandler(b *Broadcaster, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{broadcaster: b, keepAlive: 15 * time.Second, logger: logger}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.logger.Debug().Int("listeners", h.broadcaster.ListenerCount()).Msg("event listener connected")
	defer h.logger.Debug().Msg("event listener disconnected")

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case s := <-listener.C:
			if err := writeEvent(w, s); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, s session.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
	return err
}
