// Package clientio provides outbound HTTP clients used when one service
// calls a sibling service directly (rather than through the event bus),
// the source of DownstreamError (§7): a bounded-timeout dial, adapted from
// a TCP dialer to an http.Client with a request deadline.
package clientio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ews-platform/ews-consensus/internal/apperr"
)

// Client calls a single sibling service's base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// PostJSON POSTs body as JSON to path and decodes the response into out
// (if out is non-nil). Any failure — dial, non-2xx status, decode — is
// wrapped as apperr.Downstream so callers can fold it into a batch error
// record or surface it as a 500 (§7).
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return apperr.Downstream("failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return apperr.Downstream("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Downstream(fmt.Sprintf("call to %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return apperr.Downstream(fmt.Sprintf("%s returned status %d: %s", path, resp.StatusCode, string(b)), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Downstream("failed to decode response body", err)
	}
	return nil
}

// GetJSON issues a GET request and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperr.Downstream("failed to build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Downstream(fmt.Sprintf("call to %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return apperr.Downstream(fmt.Sprintf("%s returned status %d: %s", path, resp.StatusCode, string(b)), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Downstream("failed to decode response body", err)
	}
	return nil
}
