// Package process talks to a Sentinel Hub style process API: one POST per
// fetch, bearer auth, raster bytes back. Requests are sent exactly once;
// retry policy belongs to the operator, not this client.
package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// User agent
	UserAgent = "SentinelDesktop/1.0"

	// Largest error body worth reading for a message
	maxErrorBody = 64 * 1024
)

var (
	// ErrNoAOI is returned when a fetch is attempted with no area of
	// interest selected. No network traffic happens in that case.
	ErrNoAOI = errors.New("process: no area of interest selected")

	// ErrAuthUnavailable is returned when no bearer token could be obtained
	ErrAuthUnavailable = errors.New("process: auth token unavailable")

	// ErrNetwork is returned when the request never produced an HTTP response
	ErrNetwork = errors.New("process: network failure")
)

// UpstreamError reports a non-2xx response from the process API
type UpstreamError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("process request failed with status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("process request failed with status: %s", e.Status)
}

// Result is the raster returned by one fetch
type Result struct {
	Data        []byte
	ContentType string
}

// Client handles communication with one process API deployment
type Client struct {
	endpoint      string
	httpClient    *http.Client
	tokens        TokenSource
	onRateLimited func(retryAfter time.Duration)
}

// NewClient creates a process client with system proxy support
func NewClient(endpoint string, tokens TokenSource) *Client {
	// Use http.ProxyFromEnvironment to respect system proxy settings
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		tokens: tokens,
	}
}

// SetOnRateLimited registers a callback invoked when the upstream answers
// 429. The request is still reported as failed; nothing is retried.
func (c *Client) SetOnRateLimited(fn func(retryAfter time.Duration)) {
	c.onRateLimited = fn
}

// Endpoint returns the deployment URL this client posts to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch posts one process request and returns the raster bytes
func (c *Client) Fetch(params FetchParams) (*Result, error) {
	if params.Geometry == nil {
		return nil, ErrNoAOI
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}

	body, err := json.Marshal(BuildRequest(params))
	if err != nil {
		return nil, fmt.Errorf("failed to encode process request: %w", err)
	}

	req, err := http.NewRequest("POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", PNGFormat)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if c.onRateLimited != nil {
			c.onRateLimited(parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return nil, upstreamError(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = PNGFormat
	}

	return &Result{Data: data, ContentType: contentType}, nil
}

// upstreamError builds an UpstreamError, pulling the message out of the
// JSON error body when the API sent one
func upstreamError(resp *http.Response) *UpstreamError {
	e := &UpstreamError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return e
	}

	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return e
	}

	if parsed.Error.Message != "" {
		e.Message = parsed.Error.Message
	} else if parsed.Error.Reason != "" {
		e.Message = parsed.Error.Reason
	}
	return e
}

// parseRetryAfter decodes a Retry-After header, tolerating both the
// delta-seconds and HTTP-date forms
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}
