package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// NewRequest builds a request for baseURL+path with the given query and headers.
func NewRequest(ctx context.Context, method, baseURL, path string, query url.Values, body io.Reader, headers map[string]string) (*http.Request, error) {
	reqURL, err := url.Parse(strings.TrimSuffix(baseURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// JSONBody encodes v as a request body.
func JSONBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	if len(raw) > MaxRequestSize {
		return nil, fmt.Errorf("request body too large: %d bytes (max %d)", len(raw), MaxRequestSize)
	}
	return bytes.NewReader(raw), nil
}

// Decode parses a JSON response body into out. An empty body leaves out untouched.
func Decode(resp *Response, out any) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
