// Package geo resolves client IP addresses to countries through an
// ip-api.com style lookup service. The lookup is strictly best-effort:
// callers map any error to the "Unknown" sentinel.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const UnknownCountry = "Unknown"

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a lookup client. timeout bounds the whole request so a
// hung lookup cannot pile up goroutines behind it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Country looks up the country for ip. Any transport error, non-200
// response, lookup-level failure status or unexpected payload is returned
// as an error; the caller decides on the fallback.
func (c *Client) Country(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/json/%s", c.baseURL, ip), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geo request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call geo service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo service returned non-200 status: %s", resp.Status)
	}

	var data struct {
		Status  string `json:"status"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode geo response: %w", err)
	}
	if data.Status != "success" || data.Country == "" {
		return "", fmt.Errorf("geo lookup failed for %s: status %q", ip, data.Status)
	}

	return data.Country, nil
}

// Lookupable reports whether ip is worth sending to the lookup service.
// Empty and loopback addresses never are.
func Lookupable(ip string) bool {
	return ip != "" && ip != "::1" && ip != "127.0.0.1"
}
