// Package audiosource requests generated audio renderings from the backend.
package audiosource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/satindergrewal/calmwave/internal/mode"
)

// Bounds the backend accepts for a requested rendering length.
const (
	MinDurationSeconds = 10
	MaxDurationSeconds = 600
)

// ClampDuration limits s to the accepted rendering length range.
func ClampDuration(s int) int {
	if s < MinDurationSeconds {
		return MinDurationSeconds
	}
	if s > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return s
}

// Descriptor identifies one rendering. Two equal descriptors name the same
// audio; callers compare with == to decide whether to reload.
type Descriptor struct {
	Mode            mode.Mode
	DurationSeconds int
	Seed            int64
	HasSeed         bool
}

func (d Descriptor) String() string {
	if !d.HasSeed {
		return fmt.Sprintf("%s/%ds", d.Mode, d.DurationSeconds)
	}
	return fmt.Sprintf("%s/%ds/%d", d.Mode, d.DurationSeconds, d.Seed)
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client talks to the audio generation endpoint.
type Client struct {
	apiURL string
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates an audio source client. The HTTP client has no overall
// timeout because responses are streamed for the length of the rendering.
func NewClient(apiURL string, logger zerolog.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		http:   &http.Client{},
		logger: logger,
	}
}

// URL returns the request URL for d. The seed parameter is omitted until a
// seed has been chosen.
func (c *Client) URL(d Descriptor) string {
	q := url.Values{}
	q.Set("mode", string(d.Mode))
	q.Set("duration", strconv.Itoa(d.DurationSeconds))
	if d.HasSeed {
		q.Set("seed", strconv.FormatInt(d.Seed, 10))
	}
	return c.apiURL + "/api/audio/generate?" + q.Encode()
}

// Open starts streaming the rendering for d. The caller must close the
// returned body; cancelling ctx aborts the transfer.
func (c *Client) Open(ctx context.Context, d Descriptor) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(d), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Op: "generate audio", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	c.logger.Debug().Str("descriptor", d.String()).Str("content_type", resp.Header.Get("Content-Type")).Msg("audio stream opened")
	return resp.Body, nil
}

// WaitForHealthy blocks until the backend answers its health check or ctx
// is done.
func (c *Client) WaitForHealthy(ctx context.Context, interval time.Duration) error {
	c.logger.Info().Str("url", c.apiURL).Msg("waiting for audio backend")
	for {
		if c.healthy(ctx) {
			c.logger.Info().Msg("audio backend is healthy")
			return nil
		}
		c.logger.Debug().Dur("retry_in", interval).Msg("audio backend not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
