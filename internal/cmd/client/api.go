// Package client contains Cobra CLI commands for calhub.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rzbill/calhub/internal/eventstore"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// baseURLFromEnv returns the API base URL from CALHUB_API or a default.
func baseURLFromEnv() string {
	if addr := os.Getenv("CALHUB_API"); addr != "" {
		return addr
	}
	return "http://127.0.0.1:8080"
}

// apiClient is a thin JSON client over the REST API.
type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{base: base, hc: &http.Client{Timeout: 30 * time.Second}}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListEvents fetches events, optionally bounded to a date range and filter.
func (c *apiClient) ListEvents(ctx context.Context, start, end, filter string) ([]*eventstore.Event, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	path := "/api/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var events []*eventstore.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *apiClient) CreateEvent(ctx context.Context, ev *eventstore.Event) (*eventstore.Event, error) {
	var created eventstore.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", ev, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *apiClient) UpdateEvent(ctx context.Context, ev *eventstore.Event) (*eventstore.Event, error) {
	var updated eventstore.Event
	if err := c.do(ctx, http.MethodPut, "/api/events/"+url.PathEscape(ev.ID), ev, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *apiClient) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil)
}

// Health fetches the health document.
func (c *apiClient) Health(ctx context.Context) (map[string]any, error) {
	var body map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &body); err != nil {
		return nil, err
	}
	return body, nil
}
