// Package erddap fetches position tracks from ERDDAP tabledap endpoints.
package erddap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
)

const (
	gliderTimeout  = 20 * time.Second
	drifterTimeout = 15 * time.Second
)

// Fetcher decodes a JSON document from a URL.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, timeout time.Duration, v any) error
}

// Client reads trajectories from ERDDAP servers.
type Client struct {
	fetcher Fetcher
}

// NewClient creates an ERDDAP client.
func NewClient(fetcher Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

type tableResponse struct {
	Table struct {
		ColumnNames []string            `json:"columnNames"`
		Rows        [][]json.RawMessage `json:"rows"`
	} `json:"table"`
}

// GliderTrack fetches a glider's full trajectory ordered by time, rounded and
// subsampled to at most domain.MaxTrackPoints positions.
func (c *Client) GliderTrack(ctx context.Context, base, datasetID string) ([]domain.Position, error) {
	u := GliderTrackURL(base, datasetID)

	var resp tableResponse
	if err := c.fetcher.FetchJSON(ctx, u, gliderTimeout, &resp); err != nil {
		return nil, fmt.Errorf("glider track %s: %w", datasetID, err)
	}
	// rows are [time, latitude, longitude]
	track := positions(resp.Table.Rows, 1, 2)
	return domain.SubsampleTrack(track, domain.MaxTrackPoints), nil
}

// DrifterTrack fetches the latest drifter positions inside the Gulf box from
// the dataset at srcURL.
func (c *Client) DrifterTrack(ctx context.Context, srcURL string) ([]domain.Position, error) {
	u := DrifterTrackURL(srcURL)

	var resp tableResponse
	if err := c.fetcher.FetchJSON(ctx, u, drifterTimeout, &resp); err != nil {
		return nil, fmt.Errorf("drifter track: %w", err)
	}
	// rows are [latitude, longitude, time]
	return positions(resp.Table.Rows, 0, 1), nil
}

// GliderTrackURL builds the tabledap trajectory query for datasetID.
func GliderTrackURL(base, datasetID string) string {
	return strings.TrimRight(base, "/") + "/tabledap/" + datasetID +
		".json?time,latitude,longitude&orderBy(%22time%22)"
}

// DrifterTrackURL builds the Gulf-bounded latest-positions query for a dataset URL.
func DrifterTrackURL(srcURL string) string {
	return strings.TrimRight(srcURL, "/") + ".json?latitude,longitude,time" +
		"&latitude>=18&latitude<=32&longitude>=-98&longitude<=-80" +
		"&orderByLimit(%22time,50%22)"
}

// GliderBase derives the ERDDAP root from a dataset source URL, or returns
// fallback when src does not point at an ERDDAP server.
func GliderBase(src, fallback string) string {
	if !strings.Contains(src, "erddap") {
		return fallback
	}
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fallback
	}
	return u.Scheme + "://" + u.Host + "/erddap"
}

// IsDataset reports whether src names an ERDDAP dataset that DrifterTrack can query.
func IsDataset(src string) bool {
	if !strings.Contains(src, "erddap") {
		return false
	}
	trimmed := strings.TrimRight(src, "/")
	i := strings.LastIndex(trimmed, "/")
	return i >= 0 && i < len(trimmed)-1
}

func positions(rows [][]json.RawMessage, latCol, lonCol int) []domain.Position {
	out := make([]domain.Position, 0, len(rows))
	for _, row := range rows {
		lat, ok := cell(row, latCol)
		if !ok {
			continue
		}
		lon, ok := cell(row, lonCol)
		if !ok {
			continue
		}
		out = append(out, domain.Position{lon, lat}.Rounded())
	}
	return out
}

func cell(row []json.RawMessage, i int) (float64, bool) {
	if i >= len(row) {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(row[i], &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}
