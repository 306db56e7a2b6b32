// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package fetch retrieves raw public key listings from key providers over
// HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single retrieval unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// maxBody caps how much key material is read from one response.
const maxBody = 1 << 20

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected response status")

// ErrTooLarge is wrapped by errors for responses longer than the body cap.
var ErrTooLarge = errors.New("response body too large")

// Fetcher returns raw newline separated key material for a URL.
type Fetcher interface {
	GetKeys(ctx context.Context, url string) (string, error)
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher returns a fetcher whose requests time out after timeout
// (DefaultTimeout when zero).
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = "keysync"
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// GetKeys performs a GET on url and returns the body.
func (f *HTTPFetcher) GetKeys(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: %w: %s", url, ErrStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", url, err)
	}
	if len(body) > maxBody {
		return "", fmt.Errorf("read response from %s: %w: over %d bytes", url, ErrTooLarge, maxBody)
	}
	return string(body), nil
}
