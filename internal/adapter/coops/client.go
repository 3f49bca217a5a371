// Package coops reads latest water levels from the NOAA CO-OPS data API.
package coops

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
)

const waterLevelTimeout = 8 * time.Second

// ErrNoData is returned when the station reports no usable water level.
var ErrNoData = errors.New("no water level data")

// Fetcher decodes a JSON document from a URL.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, timeout time.Duration, v any) error
}

// Client queries the datagetter endpoint.
type Client struct {
	baseURL string
	fetcher Fetcher
}

// NewClient creates a CO-OPS client for the datagetter at baseURL.
func NewClient(baseURL string, fetcher Fetcher) *Client {
	return &Client{baseURL: baseURL, fetcher: fetcher}
}

type dataResponse struct {
	Data []struct {
		T string `json:"t"`
		V string `json:"v"`
	} `json:"data"`
}

// WaterLevel returns the latest MLLW water level in metres for station.
func (c *Client) WaterLevel(ctx context.Context, station string) (*domain.WaterLevel, error) {
	var resp dataResponse
	if err := c.fetcher.FetchJSON(ctx, c.WaterLevelURL(station), waterLevelTimeout, &resp); err != nil {
		return nil, fmt.Errorf("water level %s: %w", station, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("water level %s: %w", station, ErrNoData)
	}
	latest := resp.Data[len(resp.Data)-1]
	v, err := strconv.ParseFloat(strings.TrimSpace(latest.V), 64)
	if err != nil {
		return nil, fmt.Errorf("water level %s: parse %q: %w", station, latest.V, ErrNoData)
	}
	return &domain.WaterLevel{WL: v, Time: latest.T}, nil
}

// WaterLevelURL builds the latest-water-level query for station.
func (c *Client) WaterLevelURL(station string) string {
	q := url.Values{}
	q.Set("date", "latest")
	q.Set("station", station)
	q.Set("product", "water_level")
	q.Set("datum", "MLLW")
	q.Set("units", "metric")
	q.Set("time_zone", "gmt")
	q.Set("format", "json")
	return c.baseURL + "?" + q.Encode()
}
