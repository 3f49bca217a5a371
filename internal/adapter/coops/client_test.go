package coops

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/fetch"
	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/couchcryptid/gulf-ocean-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL+"/datagetter", fetch.NewClient("test", observability.NewMetrics(), logger))
}

func TestWaterLevel_LastElement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "8761724", q.Get("station"))
		assert.Equal(t, "latest", q.Get("date"))
		assert.Equal(t, "water_level", q.Get("product"))
		assert.Equal(t, "MLLW", q.Get("datum"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "gmt", q.Get("time_zone"))
		assert.Equal(t, "json", q.Get("format"))
		_, _ = w.Write([]byte(`{"metadata":{"id":"8761724"},"data":[
			{"t":"2024-04-26 14:54","v":"0.398","s":"0.003"},
			{"t":"2024-04-26 15:00","v":"0.412","s":"0.003"}]}`))
	})

	wl, err := c.WaterLevel(context.Background(), "8761724")
	require.NoError(t, err)
	assert.Equal(t, &domain.WaterLevel{WL: 0.412, Time: "2024-04-26 15:00"}, wl)
}

func TestWaterLevel_NoData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty data", `{"data":[]}`},
		{"api error", `{"error":{"message":"No data was found."}}`},
		{"blank value", `{"data":[{"t":"2024-04-26 15:00","v":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.WaterLevel(context.Background(), "8761724")
			require.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestWaterLevel_TransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.WaterLevel(context.Background(), "8761724")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}
