package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/observability"
)

// Client issues plain GET requests against upstream data sources. Every call
// carries its own timeout; there are no retries and nothing is cached.
type Client struct {
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a fetch client that identifies itself with userAgent.
func NewClient(userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent:  userAgent,
		httpClient: &http.Client{},
		metrics:    metrics,
		logger:     logger,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// FetchText returns the body of a 2xx response. Invalid UTF-8 is replaced
// rather than rejected. Transport errors, timeouts and other statuses are
// returned as errors.
func (c *Client) FetchText(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	body, err := c.get(ctx, rawURL, timeout)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(body), "�"), nil
}

// FetchJSON fetches rawURL and decodes the body into v.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, timeout time.Duration, v any) error {
	text, err := c.FetchText(ctx, rawURL, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	source := sourceLabel(rawURL)
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.FetchRequests.WithLabelValues(source, "status").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	c.metrics.FetchRequests.WithLabelValues(source, "success").Inc()
	c.logger.Debug("fetched", "url", rawURL, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// sourceLabel reduces a URL to its host so metric cardinality stays bounded
// by the number of upstream services, not stations.
func sourceLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
