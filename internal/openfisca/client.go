package openfisca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds one /calculate round trip
const DefaultTimeout = 30 * time.Second

// Client posts calculation requests to an OpenFisca web API
type Client struct {
	BaseURL string
	httpc   *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A zero timeout
// uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient overrides the internal HTTP client
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.httpc = h
	}
	return c
}

// Calculate sends the request to {BaseURL}/calculate. An engine-side
// failure reported as {"error": "..."} is returned as a response with Error
// set, not as a Go error; transport and decoding failures are errors.
func (c *Client) Calculate(ctx context.Context, req CalculationRequest) (*CalculationResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode calculation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/calculate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build calculation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openfisca calculate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openfisca calculate: read body: %w", err)
	}

	var out CalculationResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" {
			return &out, nil
		}
		return nil, fmt.Errorf("openfisca calculate %d: %s", resp.StatusCode, truncate(raw, 512))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("openfisca calculate: bad JSON: %w", decodeErr)
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
