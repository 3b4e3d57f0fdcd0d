// Package cdn purges cached renditions after the derivation worker replaces
// them, so stale thumbnails and highlights are not served from edge caches.
package cdn

import (
	"context"
	"fmt"
	"net/http"
)

// Purger invalidates a cached path so the origin is re-fetched on next request.
type Purger interface {
	Purge(ctx context.Context, path string) error
}

// NoopPurger is used when no CDN is configured (local development, tests).
type NoopPurger struct{}

// Purge does nothing.
func (NoopPurger) Purge(ctx context.Context, path string) error { return nil }

// HTTPPurger issues a PURGE request against baseURL+path, the convention used
// by most HTTP cache fronts (Varnish, Fastly-compatible proxies).
type HTTPPurger struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Purge sends the PURGE request for path.
func (p HTTPPurger) Purge(ctx context.Context, path string) error {
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("cdn: build purge request: %w", err)
	}
	req.Method = "PURGE"
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cdn: purge %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("cdn: purge %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// New selects HTTPPurger when baseURL is set, otherwise NoopPurger.
func New(baseURL, apiKey string) Purger {
	if baseURL == "" {
		return NoopPurger{}
	}
	return HTTPPurger{BaseURL: baseURL, APIKey: apiKey}
}
