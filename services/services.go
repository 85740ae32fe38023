// Package services talks to the external providers a project links to.
// Each service returns sentinel-wrapped errors; the api package decides
// which status and message a failure becomes.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrNotConfigured means a credential or base URL the service needs is unset.
	ErrNotConfigured = errors.New("integration not configured")
	// ErrUnavailable covers DNS failures, resets, timeouts and unusable responses.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformedFeed means the news feed body could not be parsed.
	ErrMalformedFeed = errors.New("malformed feed")
)

const (
	defaultTimeout     = 10 * time.Second
	projectLiteTimeout = 5 * time.Second
	maxBodyBytes       = 4 << 20
)

// UpstreamError is a non-2xx answer from a provider.
type UpstreamError struct {
	Service string
	Status  int
	Body    []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Service, e.Status)
}

// AsUpstreamError returns the *UpstreamError in err's chain, if any.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstreamErr *UpstreamError
	ok := errors.As(err, &upstreamErr)
	return upstreamErr, ok
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// newBearerClient attaches "Authorization: Bearer <token>" to every request.
func newBearerClient(token string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		},
	}
}

// getJSON issues a GET and decodes a 2xx body into out. Transport failures
// wrap ErrUnavailable; non-2xx answers come back as *UpstreamError.
func getJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, out any) error {
	body, _, err := get(ctx, client, service, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w: %v", service, ErrUnavailable, err)
	}
	return nil
}

// get issues a GET and returns the body of a 2xx answer with its status.
// Bodies larger than maxBodyBytes are rejected rather than truncated.
func get(ctx context.Context, client *http.Client, service, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s request: %w", service, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s request failed: %w: %v", service, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read %s response: %w: %v", service, ErrUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		return nil, 0, fmt.Errorf("%s response exceeds %d bytes: %w", service, maxBodyBytes, ErrUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &UpstreamError{Service: service, Status: resp.StatusCode, Body: body}
	}
	return body, resp.StatusCode, nil
}
