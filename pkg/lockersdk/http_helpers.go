package lockersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBody caps how much of a response the client will buffer.
const maxResponseBody = 1 << 20

// doRequest sends a request to BaseURL+path. An empty token sends no
// Authorization header.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("lockersdk: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lockersdk: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("lockersdk: encode body: %w", err)
	}
	return c.doRequest(ctx, method, path, token, bytes.NewReader(b), map[string]string{"Content-Type": "application/json"})
}

// expect consumes resp. A status other than want becomes an *APIError;
// otherwise the body is decoded into target unless target is nil.
func expect(resp *http.Response, want int, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("lockersdk: read body: %w", err)
	}

	if resp.StatusCode != want {
		if apiErr := parseErrorResponse(resp, body); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("lockersdk: unexpected status %d, want %d", resp.StatusCode, want)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("lockersdk: decode body: %w", err)
	}
	return nil
}

func decodeJSON(resp *http.Response, target any, want int) error {
	return expect(resp, want, target)
}

func checkStatusNoContent(resp *http.Response) error {
	return expect(resp, http.StatusNoContent, nil)
}
