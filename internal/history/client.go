// Package history records finished sessions with the remote history service.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/satindergrewal/calmwave/internal/mode"
)

// ErrUnauthenticated is returned when no bearer token is configured or the
// service rejects it.
var ErrUnauthenticated = errors.New("history: not authenticated")

// Result is the record written when a session completes.
type Result struct {
	Mode            mode.Mode `json:"mode"`
	DurationSeconds int       `json:"duration_seconds"`
}

// Entry is one stored session as returned by the service.
type Entry struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	Mode            mode.Mode `json:"mode"`
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       Timestamp `json:"started_at"`
}

// Timestamp accepts RFC 3339 times as well as the zone-less ISO form the
// service emits, which is taken as UTC.
type Timestamp struct{ time.Time }

const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	v, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = v
	return nil
}

// StatusError is returned for an unexpected response status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// Client talks to /api/users/me/history.
type Client struct {
	apiURL string
	token  string
	http   *http.Client
}

// NewClient creates a history client. timeout bounds each request.
func NewClient(apiURL, token string, timeout time.Duration) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) endpoint() string { return c.apiURL + "/api/users/me/history" }

// Record stores r.
func (c *Client) Record(ctx context.Context, r Result) error {
	if c.token == "" {
		return ErrUnauthenticated
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthenticated
	case resp.StatusCode/100 != 2:
		return &StatusError{Op: "record session", Code: resp.StatusCode}
	}
	return nil
}

// List returns stored sessions, most recent first.
func (c *Client) List(ctx context.Context, skip, limit int) ([]Entry, error) {
	if c.token == "" {
		return nil, ErrUnauthenticated
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Op: "list sessions", Code: resp.StatusCode}
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return entries, nil
}
