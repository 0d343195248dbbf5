package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// SessionChannel is the data channel label remote displays open.
const SessionChannel = "session"

// WebRTCHandler negotiates peer connections whose "session" data channel
// mirrors every published snapshot as JSON text messages.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	config      webrtc.Configuration
	logger      zerolog.Logger
	mu          sync.Mutex
	peers       []*webrtc.PeerConnection
}

// NewWebRTCHandler creates a WebRTC signalling handler.
func NewWebRTCHandler(b *Broadcaster, logger zerolog.Logger) *WebRTCHandler {
	return &WebRTCHandler{
		broadcaster: b,
		logger:      logger,
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil || offer.Type != webrtc.SDPTypeOffer {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(h.config)
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != SessionChannel {
			h.logger.Debug().Str("label", dc.Label()).Msg("ignoring data channel")
			return
		}
		dc.OnOpen(func() { go h.mirror(dc) })
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}
	select {
	case <-gatherComplete:
	case <-r.Context().Done():
		pc.Close()
		return
	}

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	h.mu.Unlock()

	h.logger.Info().Int("peers", h.PeerCount()).Msg("webrtc peer connected")

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			if h.removePeer(pc) {
				pc.Close()
				h.logger.Info().Int("peers", h.PeerCount()).Msg("webrtc peer disconnected")
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(pc.LocalDescription())
}

// mirror sends snapshots over dc until the channel closes.
func (h *WebRTCHandler) mirror(dc *webrtc.DataChannel) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	closed := make(chan struct{})
	var once sync.Once
	dc.OnClose(func() { once.Do(func() { close(closed) }) })

	for {
		select {
		case <-closed:
			return
		case <-listener.Done():
			return
		case s := <-listener.C:
			data, err := json.Marshal(s)
			if err != nil {
				h.logger.Warn().Err(err).Msg("encode snapshot")
				continue
			}
			if err := dc.SendText(string(data)); err != nil {
				return
			}
		}
	}
}

// Close disconnects every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = nil
	h.mu.Unlock()
	for _, pc := range peers {
		pc.Close()
	}
}

func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.peers {
		if p == pc {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return true
		}
	}
	return false
}
