package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwantia/snaptree/data"
)

// ClientSource consumes a children endpoint served by Server (or any
// compatible backend). Each request carries a fresh X-Request-Id so
// fetches can be correlated across client and server logs.
type ClientSource struct {
	baseURL string
	client  *http.Client
}

// NewClientSource creates a child source reading from the endpoint at
// baseURL, e.g. "http://localhost:8080".
func NewClientSource(baseURL string) *ClientSource {
	return &ClientSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the identifier name defined for this source.
func (*ClientSource) Name() string {
	return "httpapi"
}

// Open is part of the lifecycle behaviour and gets called when opening this source.
func (cs *ClientSource) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cs.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := cs.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpapi: health check returned status %d", resp.StatusCode)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this source.
func (cs *ClientSource) Close(ctx context.Context) error {
	cs.client.CloseIdleConnections()
	return nil
}

// FetchImmediateChildren requests every direct child of parentPath
// under the given browse context from the remote endpoint.
func (cs *ClientSource) FetchImmediateChildren(ctx context.Context, bctx data.BrowseContext, parentPath string) ([]data.Entry, error) {
	endpoint := fmt.Sprintf("%s/api/roots/%d/snapshots/%d/children?path=%s",
		cs.baseURL, bctx.RootID, bctx.SnapshotID,
		url.QueryEscape(data.NormalizePath(parentPath)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("Accept", "application/json")

	resp, err := cs.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
			return nil, fmt.Errorf("httpapi: %s (status %d)", failure.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("httpapi: unexpected status %d", resp.StatusCode)
	}

	var response childrenResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("httpapi: decode response: %w", err)
	}

	entries := make([]data.Entry, len(response.Entries))
	for i, wire := range response.Entries {
		entries[i] = fromWire(wire)
	}

	return entries, nil
}
