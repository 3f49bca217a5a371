// Package aquaview searches the AQUAVIEW STAC catalogue for assets inside the
// Gulf of Mexico bounding box.
package aquaview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
)

// GulfBBox is the west,south,east,north search box.
const GulfBBox = "-98,18,-80,32"

const searchTimeout = 30 * time.Second

// Fetcher decodes a JSON document from a URL.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, timeout time.Duration, v any) error
}

// Client queries the catalogue search endpoint.
type Client struct {
	baseURL string
	fetcher Fetcher
	logger  *slog.Logger
}

// NewClient creates a discovery client rooted at baseURL.
func NewClient(baseURL string, fetcher Fetcher, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		logger:  logger,
	}
}

type searchResponse struct {
	Features *[]json.RawMessage `json:"features"`
}

// Search returns up to limit features of collection. Failures are logged and
// yield an empty list; only the first page is read. Features that fail to
// decode are skipped individually.
func (c *Client) Search(ctx context.Context, collection string, limit int, extra url.Values) []domain.Feature {
	u := c.SearchURL(collection, limit, extra)

	var resp searchResponse
	if err := c.fetcher.FetchJSON(ctx, u, searchTimeout, &resp); err != nil {
		c.logger.Warn("search failed", "collection", collection, "error", err)
		return nil
	}
	if resp.Features == nil {
		c.logger.Warn("search response has no features", "collection", collection)
		return nil
	}

	features := make([]domain.Feature, 0, len(*resp.Features))
	for i, raw := range *resp.Features {
		var f domain.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			c.logger.Debug("skipping undecodable feature", "collection", collection, "index", i, "error", err)
			continue
		}
		features = append(features, f)
	}
	return features
}

// SearchURL builds the search query for collection.
func (c *Client) SearchURL(collection string, limit int, extra url.Values) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/search?collections=")
	b.WriteString(url.QueryEscape(collection))
	b.WriteString("&bbox=")
	b.WriteString(GulfBBox)
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(limit))
	if len(extra) > 0 {
		b.WriteByte('&')
		b.WriteString(extra.Encode())
	}
	return b.String()
}
