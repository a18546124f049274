package oscquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHTTPTimeout = 3 * time.Second
	maxResponseSize    = 1 << 20
)

// HTTPClient queries OSCQuery peers.
type HTTPClient struct {
	http *http.Client
}

// NewHTTPClient creates a client with a short request timeout. A nil hc
// uses a default *http.Client.
func NewHTTPClient(hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPClient{http: hc}
}

// FetchHostInfo reads HOST_INFO from baseURL.
func (c *HTTPClient) FetchHostInfo(ctx context.Context, baseURL string) (HostInfo, error) {
	var info HostInfo
	if err := c.getJSON(ctx, baseURL+"/?"+hostInfoQuery, &info); err != nil {
		return HostInfo{}, err
	}
	if _, err := info.OSCEndpoint(); err != nil {
		return HostInfo{}, fmt.Errorf("%w: %s", ErrNoHostInfo, baseURL)
	}
	return info, nil
}

// FetchNode reads the node at path (e.g. "/avatar/parameters/OSCLeash").
func (c *HTTPClient) FetchNode(ctx context.Context, baseURL, path string) (*Node, error) {
	var node Node
	if err := c.getJSON(ctx, baseURL+path, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// FetchParameters returns the current value of every parameter at or
// below path, keyed by full OSC address. A missing node yields an empty
// map, not an error.
func (c *HTTPClient) FetchParameters(ctx context.Context, baseURL, path string) (map[string]any, error) {
	node, err := c.FetchNode(ctx, baseURL, path)
	if err != nil {
		if errors.Is(err, ErrNodeNotFound) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return node.Values(), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNodeNotFound, url)
	default:
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
