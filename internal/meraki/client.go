package meraki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
	"github.com/juju/retry"
)

// DefaultBaseURL is the production Dashboard API endpoint.
const DefaultBaseURL = "https://api.meraki.com/api/v1"

// ReadResult is the outcome of a Read. Absent means the resource is not
// configured or not applicable on this network/device; it is a success
// outcome, not an error.
type ReadResult struct {
	Value  json.RawMessage
	Absent bool
}

// Client talks to the Dashboard API. Retry, backoff, and rate-limit handling
// live here; callers only see success, absence, or a classified error.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     hclog.Logger
	Clock      clock.Clock
	Attempts   int
}

// New returns a Client with production defaults.
func New(apiKey string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     hclog.NewNullLogger(),
		Clock:      clock.WallClock,
		Attempts:   4,
	}
}

// Read fetches a resource. A 404 maps to ReadResult{Absent: true}.
func (c *Client) Read(ctx context.Context, path string) (ReadResult, error) {
	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return ReadResult{}, err
	}
	if status == http.StatusNotFound {
		return ReadResult{Absent: true}, nil
	}
	return ReadResult{Value: body}, nil
}

// Write updates a resource in place (PUT semantics).
func (c *Client) Write(ctx context.Context, path string, value any) (json.RawMessage, error) {
	body, status, err := c.do(ctx, http.MethodPut, path, value)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &APIError{StatusCode: status, Path: path, Body: "resource not found"}
	}
	return body, nil
}

// Create makes a new resource (POST semantics). The returned value carries
// the server-assigned identifier.
func (c *Client) Create(ctx context.Context, path string, value any) (json.RawMessage, error) {
	body, status, err := c.do(ctx, http.MethodPost, path, value)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &APIError{StatusCode: status, Path: path, Body: "resource not found"}
	}
	return body, nil
}

// do runs one API call with retries. 429 and 5xx responses are retried with
// doubling delay; auth failures and other 4xx responses are returned
// immediately as classified errors. A 404 is returned as a success with
// StatusNotFound so Read can map it to absence.
func (c *Client) do(ctx context.Context, method, path string, value any) (json.RawMessage, int, error) {
	var reqBody []byte
	if value != nil {
		var err error
		reqBody, err = json.Marshal(value)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
	}

	var respBody json.RawMessage
	var respStatus int

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			body, status, err := c.once(ctx, method, path, reqBody)
			if err != nil {
				return err
			}
			respBody, respStatus = body, status
			return nil
		},
		IsFatalError: func(err error) bool {
			return !isRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			c.Logger.Debug("retrying API call", "method", method, "path", path, "attempt", attempt, "error", err)
		},
		Attempts:    c.Attempts,
		Delay:       500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.Clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return nil, 0, err
	}
	return respBody, respStatus, nil
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) (json.RawMessage, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Cisco-Meraki-API-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &transportError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.Logger.Debug("rate limited", "path", path, "retry_after", resp.Header.Get("Retry-After"))
		return nil, 0, &rateLimitedError{path: path}
	case resp.StatusCode >= 500:
		return nil, 0, &serverError{status: resp.StatusCode, path: path}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, &AccessError{StatusCode: resp.StatusCode, Path: path}
	case resp.StatusCode == http.StatusNotFound:
		return nil, http.StatusNotFound, nil
	case resp.StatusCode >= 400:
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(respBody)}
	}

	if len(respBody) == 0 {
		return nil, resp.StatusCode, nil
	}
	return respBody, resp.StatusCode, nil
}
