// Package client talks to a running binder server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/engine"
)

const (
	DefaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 30 * time.Second
)

// ErrRejected is returned when the server refuses a request as malformed.
var ErrRejected = errors.New("request rejected by server")

// Client talks to the binder server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL falls back to BINDER_URL,
// then to http://127.0.0.1:37778.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("BINDER_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// URL returns the server base URL.
func (c *Client) URL() string {
	return c.serverURL
}

// EntropyResult is the server's entropy response: the score plus the caps
// it was computed against.
type EntropyResult struct {
	engine.EntropyScore
	InboxCap    uint32           `json:"inboxCap"`
	TaskCap     uint32           `json:"taskCap"`
	InboxStatus engine.CapStatus `json:"inboxStatus"`
	TaskStatus  engine.CapStatus `json:"taskStatus"`
	SnapshotID  string           `json:"snapshotId,omitempty"`
}

// EntropyRequest carries the inputs to a remote entropy computation. Nil caps
// use the server's stored cap config.
type EntropyRequest struct {
	Atoms      json.RawMessage `json:"atoms"`
	InboxCount uint32          `json:"inbox_count"`
	NowMs      *float64        `json:"now_ms,omitempty"`
	InboxCap   *uint32         `json:"inbox_cap,omitempty"`
	TaskCap    *uint32         `json:"task_cap,omitempty"`
}

type atomsRequest struct {
	Atoms json.RawMessage `json:"atoms"`
	NowMs *float64        `json:"now_ms,omitempty"`
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/health", nil)
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

// Ping returns the server's liveness answer.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ping", nil, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Version returns the server's scoring core version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Core string `json:"core"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &out); err != nil {
		return "", err
	}
	return out.Core, nil
}

// Scores sends a raw JSON atom array for scoring.
func (c *Client) Scores(ctx context.Context, atoms json.RawMessage, nowMs *float64) (map[string]engine.AtomScore, error) {
	var out map[string]engine.AtomScore
	err := c.do(ctx, http.MethodPost, "/api/scores", atomsRequest{Atoms: atoms, NowMs: nowMs}, &out)
	return out, err
}

// Entropy requests a collection health score.
func (c *Client) Entropy(ctx context.Context, req EntropyRequest) (*EntropyResult, error) {
	var out EntropyResult
	if err := c.do(ctx, http.MethodPost, "/api/entropy", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compression requests archival candidates.
func (c *Client) Compression(ctx context.Context, atoms json.RawMessage, nowMs *float64) ([]engine.CompressionCandidate, error) {
	var out []engine.CompressionCandidate
	err := c.do(ctx, http.MethodPost, "/api/compression", atomsRequest{Atoms: atoms, NowMs: nowMs}, &out)
	return out, err
}

// Caps returns the server's stored cap config.
func (c *Client) Caps(ctx context.Context) (engine.CapConfig, error) {
	var out engine.CapConfig
	err := c.do(ctx, http.MethodGet, "/api/caps", nil, &out)
	return out, err
}

// SetCaps replaces the server's stored cap config.
func (c *Client) SetCaps(ctx context.Context, caps engine.CapConfig) error {
	return c.do(ctx, http.MethodPut, "/api/caps", caps, nil)
}

// do sends body as JSON and decodes the response into out. A 400 response is
// reported as ErrRejected.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encode %s", path)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read response %s", path)
	}
	if resp.StatusCode >= 400 {
		msg := string(data)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if resp.StatusCode == http.StatusBadRequest {
			return errors.Wrapf(ErrRejected, "%s %s: %s", method, path, msg)
		}
		return errors.Newf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode response %s", path)
	}
	return nil
}
