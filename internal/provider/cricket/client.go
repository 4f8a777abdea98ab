// Package cricket provides the HTTP client for the external cricket scoring
// API (a RapidAPI-hosted match-center feed).
//
// The API uses key/host header auth. Rate limiting is handled via a token
// bucket limiter so a burst of active matches cannot trip the upstream quota.
package cricket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client is the match-center HTTP client.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a rate-limited client. The key comes from the operator
// config record, falling back to the environment.
func NewClient(host, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		host:       host,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// GetMatch fetches current match-center data for one match id.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("https://%s/mcenter/v1/%s", c.host, matchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request match %s: %w", matchID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("match %s returned %d: %s", matchID, resp.StatusCode, truncate(body, 200))
	}

	var m Match
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", matchID, err)
	}
	m.Raw = body

	return &m, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
