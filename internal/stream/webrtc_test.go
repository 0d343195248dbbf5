package stream

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/calmwave/internal/log"
)

func TestOfferRejectsBadInput(t *testing.T) {
	h := NewWebRTCHandler(NewBroadcaster(), log.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offer", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader(`{"type":"answer","sdp":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/offer", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestOfferAnswersDataChannel(t *testing.T) {
	h := NewWebRTCHandler(NewBroadcaster(), log.Nop())
	defer h.Close()

	client, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer client.Close()
	_, err = client.CreateDataChannel(SessionChannel, nil)
	require.NoError(t, err)

	offer, err := client.CreateOffer(nil)
	require.NoError(t, err)
	gathered := webrtc.GatheringCompletePromise(client)
	require.NoError(t, client.SetLocalDescription(offer))
	select {
	case <-gathered:
	case <-time.After(10 * time.Second):
		t.Fatal("ICE gathering did not complete")
	}

	body, err := json.Marshal(client.LocalDescription())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer webrtc.SessionDescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Contains(t, answer.SDP, "webrtc-datachannel")
	assert.Equal(t, 1, h.PeerCount())
}
