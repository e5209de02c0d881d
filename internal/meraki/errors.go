package meraki

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-retryable rejection from the Dashboard API (validation
// failure, conflict, unsupported feature). It is scoped to one resource.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned %d for %s: %s", e.StatusCode, e.Path, e.Body)
}

// AccessError means the API key cannot reach the organization at all
// (401/403). It is fatal to the whole run: nothing downstream can be trusted
// without basic access.
type AccessError struct {
	StatusCode int
	Path       string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied (%d) for %s", e.StatusCode, e.Path)
}

// transportError wraps a network-level failure; retried.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return fmt.Sprintf("transport: %v", e.err) }
func (e *transportError) Unwrap() error { return e.err }

// rateLimitedError marks a 429; retried with backoff.
type rateLimitedError struct {
	path string
}

func (e *rateLimitedError) Error() string { return fmt.Sprintf("rate limited on %s", e.path) }

// serverError marks a 5xx; retried.
type serverError struct {
	status int
	path   string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error %d on %s", e.status, e.path)
}

func isRetryable(err error) bool {
	switch err.(type) {
	case *transportError, *rateLimitedError, *serverError:
		return true
	}
	return false
}

// IsAccessDenied reports whether err is a fatal auth failure.
func IsAccessDenied(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsConflict reports whether err is a creation conflict with an existing
// resource on the target (duplicate name, VLAN already in use).
func IsConflict(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.StatusCode == http.StatusConflict {
		return true
	}
	if ae.StatusCode != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(ae.Body)
	for _, hint := range []string{"already exists", "already in use", "must be unique", "taken"} {
		if strings.Contains(body, hint) {
			return true
		}
	}
	return false
}

// IsNotApplicable reports whether err means the feature does not apply to
// this network or device class. Not-applicable resources are skipped, never
// retried, and counted separately from hard failures.
func IsNotApplicable(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.StatusCode == http.StatusNotFound {
		return true
	}
	if ae.StatusCode != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(ae.Body)
	for _, hint := range []string{"not supported", "unsupported", "not applicable", "does not support"} {
		if strings.Contains(body, hint) {
			return true
		}
	}
	return false
}
