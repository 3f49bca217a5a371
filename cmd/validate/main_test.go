package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2026, time.April, 27, 6, 0, 0, 0, time.UTC)

func setClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(refTime))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func validDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	const stamp = `"updated":"2026-04-26T15:10:00Z"`
	writeFile(t, dir, "ioos_sensors.json", `{`+stamp+`,"count":1,"sensors":[{"id":"s","title":"t","lat":28.9823,"lon":-94.8989,"vars":[],"src":"","org":""}]}`)
	writeFile(t, dir, "ndbc_met.json", `{`+stamp+`,"count":0,"buoys":[]}`)
	writeFile(t, dir, "coops.json", `{`+stamp+`,"count":0,"stations":[]}`)
	writeFile(t, dir, "gliders.json", `{`+stamp+`,"count":1,"gliders":[{"id":"g","title":"g","track":[[-85,25],[-85.1,25.1]],"vars":[]}]}`)
	writeFile(t, dir, "drifters.json", `{`+stamp+`,"count":0,"drifters":[]}`)
	writeFile(t, dir, "incidents.json", `{`+stamp+`,"count":0,"incidents":[]}`)
	writeFile(t, dir, "pmel.json", `{`+stamp+`,"count":0,"probes":[]}`)
	writeFile(t, dir, "latest.json", `{"updated":"x","stations":[{"id":"42019"}]}`)
	writeFile(t, dir, "currents.json", `{"table":{}}`)
	return dir
}

func TestRun_ValidDirectory(t *testing.T) {
	setClock(t)
	assert.Equal(t, 0, run(validDir(t), 48*time.Hour))
}

func TestValidateEnvelopes_CountMismatch(t *testing.T) {
	d := decodeDocument(category{"pmel.json", "probes"},
		[]byte(`{"updated":"2026-04-26T15:10:00Z","count":2,"probes":[{"id":"p"}]}`))
	p := validateEnvelopes([]document{d}, refTime, 0)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "count=2 but 1 probes")
}

func TestValidateEnvelopes_BadTimestamp(t *testing.T) {
	d := decodeDocument(category{"pmel.json", "probes"},
		[]byte(`{"updated":"2026-04-26 15:10","count":0,"probes":[]}`))
	p := validateEnvelopes([]document{d}, refTime, 0)
	assert.False(t, p.passed())
}

func TestValidateEnvelopes_Freshness(t *testing.T) {
	tests := []struct {
		name    string
		updated string
		maxAge  time.Duration
		wantErr string
	}{
		{"fresh", "2026-04-26T15:10:00Z", 48 * time.Hour, ""},
		{"stale", "2026-04-20T00:00:00Z", 48 * time.Hour, "older than 48h0m0s"},
		{"stale but unchecked", "2020-01-01T00:00:00Z", 0, ""},
		{"future", "2026-04-28T00:00:00Z", 48 * time.Hour, "in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decodeDocument(category{"pmel.json", "probes"},
				[]byte(`{"updated":"`+tt.updated+`","count":0,"probes":[]}`))
			p := validateEnvelopes([]document{d}, refTime, tt.maxAge)
			if tt.wantErr == "" {
				assert.True(t, p.passed(), p.errors)
				return
			}
			require.Len(t, p.errors, 1)
			assert.Contains(t, p.errors[0], tt.wantErr)
		})
	}
}

func TestRun_StaleDirectoryFails(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(refTime.AddDate(0, 0, 10)))
	t.Cleanup(func() { domain.SetClock(nil) })
	assert.Equal(t, 1, run(validDir(t), 48*time.Hour))
}

func TestValidateCaps(t *testing.T) {
	long := strings.Repeat("é", 81)
	d := decodeDocument(category{"ndbc_met.json", "buoys"},
		[]byte(`{"updated":"2026-04-26T15:10:00Z","count":1,"buoys":[{"title":"`+long+`","vars":["1","2","3","4","5","6","7","8","9"]}]}`))
	p := validateCaps([]document{d})
	assert.Len(t, p.errors, 2)
}

func TestValidateCoordinates(t *testing.T) {
	d := decodeDocument(category{"pmel.json", "probes"},
		[]byte(`{"updated":"2026-04-26T15:10:00Z","count":1,"probes":[{"lat":25.12345,"lon":-200}]}`))
	p := validateCoordinates([]document{d})
	assert.Len(t, p.errors, 2)
}

func TestRun_MissingFileFails(t *testing.T) {
	dir := validDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "coops.json")))
	setClock(t)
	assert.Equal(t, 1, run(dir, 48*time.Hour))
}
