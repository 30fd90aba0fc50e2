// Package teacher wraps the slow, high-accuracy verification endpoint used
// as the labeling oracle.
package teacher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL = "http://localhost:8788"
	defaultTimeout = 60 * time.Second

	// DefaultLocalConfidence is sent when a clip carries no confidence hint.
	DefaultLocalConfidence = 0.7
)

// VerifyRequest mirrors the teacher's /verify request schema.
type VerifyRequest struct {
	EventID         string             `json:"event_id"`
	ProposedIntent  gesture.Intent     `json:"proposed_intent"`
	LocalConfidence float64            `json:"local_confidence"`
	Frames          []string           `json:"frames,omitempty"`
	LandmarkSummary map[string]any     `json:"landmark_summary_json,omitempty"`
	Features        gesture.FeatureBag `json:"features,omitempty"`
}

// Client calls the teacher endpoint with a per-call timeout. All failure
// shapes (transport, non-2xx, malformed body) come back as a single error
// kind so batch callers can record them uniformly per sample.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the teacher base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout bounds each verify call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a teacher client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured teacher base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Verify posts one proposed gesture to the teacher and returns its verdict.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*gesture.Verdict, error) {
	start := time.Now()
	metrics.RecordTeacherCall()

	verdict, err := c.verify(ctx, req)
	if err != nil {
		metrics.RecordTeacherCallError()
		return nil, err
	}
	metrics.RecordTeacherCallLatency(float64(time.Since(start).Milliseconds()))
	return verdict, nil
}

func (c *Client) verify(ctx context.Context, req VerifyRequest) (*gesture.Verdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", ErrTeacherCall, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTeacherCall, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTeacherCall, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTeacherCall, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrTeacherCall, resp.StatusCode, string(data))
	}

	var verdict gesture.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, fmt.Errorf("%w: decode verdict: %w", ErrTeacherCall, err)
	}
	return &verdict, nil
}

// Health probes the teacher's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTeacherCall, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTeacherCall, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrTeacherCall, resp.StatusCode)
	}
	return nil
}
