// Command validate checks the published data directory for integrity: every
// category document parses, its count matches its items, string and track
// caps hold, coordinates carry at most four decimals, and every "updated"
// stamp is neither in the future nor older than -max-age.
//
// Usage:
//
//	go run ./cmd/validate -dir docs/data
//	go run ./cmd/validate -dir docs/data -at 2024-04-26T15:10:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// category names a category file and its item key.
type category struct {
	file string
	key  string
}

var documents = []category{
	{"ioos_sensors.json", "sensors"},
	{"ndbc_met.json", "buoys"},
	{"coops.json", "stations"},
	{"gliders.json", "gliders"},
	{"drifters.json", "drifters"},
	{"incidents.json", "incidents"},
	{"pmel.json", "probes"},
}

func main() {
	dir := flag.String("dir", "docs/data", "published data directory")
	maxAge := flag.Duration("max-age", 48*time.Hour, "oldest acceptable updated stamp (0 disables)")
	at := flag.String("at", "", "reference time for freshness checks (RFC 3339, default now)")
	flag.Parse()

	if *at != "" {
		ref, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -at: %v\n", err)
			os.Exit(2)
		}
		// Pin the clock, e.g. to genmock's base date.
		domain.SetClock(clockwork.NewFakeClockAt(ref))
	}

	os.Exit(run(*dir, *maxAge))
}

func run(dir string, maxAge time.Duration) int {
	fmt.Println("=== Ocean Data Integrity Validation ===")
	fmt.Println()

	docs, missing := loadDocuments(dir)

	phases := []*phase{
		validatePresence(missing),
		validateEnvelopes(docs, domain.Now(), maxAge),
		validateCaps(docs),
		validateCoordinates(docs),
		validateStatic(dir),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	total := 0
	for _, d := range docs {
		total += len(d.items)
	}
	fmt.Printf("Documents: %d loaded, %d records\n", len(docs), total)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// document is a decoded category file with its items left generic.
type document struct {
	cat category
	updated string
	count   int
	items   []map[string]any
	err     error
}

func loadDocuments(dir string) ([]document, []string) {
	var docs []document
	var missing []string
	for _, s := range documents {
		data, err := os.ReadFile(filepath.Join(dir, s.file))
		if err != nil {
			missing = append(missing, s.file)
			continue
		}
		docs = append(docs, decodeDocument(s, data))
	}
	return docs, missing
}

func decodeDocument(s category, data []byte) document {
	d := document{cat: s}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		d.err = err
		return d
	}
	if err := json.Unmarshal(raw["updated"], &d.updated); err != nil {
		d.err = fmt.Errorf("updated: %w", err)
		return d
	}
	if err := json.Unmarshal(raw["count"], &d.count); err != nil {
		d.err = fmt.Errorf("count: %w", err)
		return d
	}
	items, ok := raw[s.key]
	if !ok {
		d.err = fmt.Errorf("missing %q", s.key)
		return d
	}
	if err := json.Unmarshal(items, &d.items); err != nil {
		d.err = fmt.Errorf("%s: %w", s.key, err)
	}
	return d
}

// ── Phases ──

func validatePresence(missing []string) *phase {
	p := &phase{name: "Phase 1: Category files present"}
	for _, f := range missing {
		p.errorf("%s: not found", f)
	}
	return p
}

func validateEnvelopes(docs []document, now time.Time, maxAge time.Duration) *phase {
	p := &phase{name: "Phase 2: Document envelopes"}
	for _, d := range docs {
		if d.err != nil {
			p.errorf("%s: %v", d.cat.file, d.err)
			continue
		}
		switch ts, err := time.Parse("2006-01-02T15:04:05Z", d.updated); {
		case err != nil:
			p.errorf("%s: updated %q is not a UTC second timestamp", d.cat.file, d.updated)
		case ts.After(now):
			p.errorf("%s: updated %s is in the future", d.cat.file, d.updated)
		case maxAge > 0 && now.Sub(ts) > maxAge:
			p.errorf("%s: updated %s is older than %s", d.cat.file, d.updated, maxAge)
		}
		if d.count != len(d.items) {
			p.errorf("%s: count=%d but %d %s", d.cat.file, d.count, len(d.items), d.cat.key)
		}
	}
	return p
}

// caps per item field, in runes or list entries.
var stringCaps = map[string]map[string]int{
	"sensors":   {"title": domain.TitleLen, "src": domain.SourceURLLen},
	"buoys":     {"title": domain.TitleLen},
	"stations":  {"title": domain.TitleLen, "src": domain.SourceURLLen},
	"gliders":   {"title": domain.TitleLen, "src": domain.SourceURLLen},
	"drifters":  {"title": domain.TitleLen, "src": domain.SourceURLLen},
	"incidents": {"title": domain.IncidentTitleLen, "desc": domain.DescLen},
	"probes":    {"title": domain.TitleLen, "src": domain.SourceURLLen},
}

var listCaps = map[string]map[string]int{
	"sensors":  {"vars": 10},
	"buoys":    {"vars": 8},
	"stations": {"vars": 6},
	"gliders":  {"vars": 6, "track": domain.MaxTrackPoints},
	"drifters": {"track": domain.MaxTrackPoints},
	"probes":   {"vars": 6},
}

func validateCaps(docs []document) *phase {
	p := &phase{name: "Phase 3: Field caps"}
	for _, d := range docs {
		for i, item := range d.items {
			for field, limit := range stringCaps[d.cat.key] {
				s, _ := item[field].(string)
				if n := utf8.RuneCountInString(s); n > limit {
					p.errorf("%s[%d].%s: %d runes exceeds %d", d.cat.key, i, field, n, limit)
				}
			}
			for field, limit := range listCaps[d.cat.key] {
				list, _ := item[field].([]any)
				if len(list) > limit {
					p.errorf("%s[%d].%s: %d entries exceeds %d", d.cat.key, i, field, len(list), limit)
				}
			}
		}
	}
	return p
}

func validateCoordinates(docs []document) *phase {
	p := &phase{name: "Phase 4: Coordinates"}
	for _, d := range docs {
		for i, item := range d.items {
			if lat, ok := item["lat"].(float64); ok {
				checkCoord(p, fmt.Sprintf("%s[%d].lat", d.cat.key, i), lat, 90)
			}
			if lon, ok := item["lon"].(float64); ok {
				checkCoord(p, fmt.Sprintf("%s[%d].lon", d.cat.key, i), lon, 180)
			}
			track, _ := item["track"].([]any)
			for j, pt := range track {
				pair, _ := pt.([]any)
				if len(pair) != 2 {
					p.errorf("%s[%d].track[%d]: not a [lon, lat] pair", d.cat.key, i, j)
					continue
				}
				lon, _ := pair[0].(float64)
				lat, _ := pair[1].(float64)
				checkCoord(p, fmt.Sprintf("%s[%d].track[%d].lon", d.cat.key, i, j), lon, 180)
				checkCoord(p, fmt.Sprintf("%s[%d].track[%d].lat", d.cat.key, i, j), lat, 90)
			}
		}
	}
	return p
}

func checkCoord(p *phase, where string, v, bound float64) {
	if math.Abs(v) > bound {
		p.errorf("%s: %v out of range", where, v)
	}
	if !floatEq(v, domain.Round4(v)) {
		p.errorf("%s: %v has more than four decimals", where, v)
	}
}

// validateStatic checks the two files that are not rebuilt from the catalogue.
func validateStatic(dir string) *phase {
	p := &phase{name: "Phase 5: Station and currents files"}

	if data, err := os.ReadFile(filepath.Join(dir, "latest.json")); err == nil {
		var f domain.StationFile
		if err := json.Unmarshal(data, &f); err != nil {
			p.errorf("latest.json: %v", err)
		} else {
			for i, s := range f.Stations {
				if s.ID() == "" {
					p.errorf("latest.json stations[%d]: missing id", i)
				}
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "currents.json")); err == nil && !json.Valid(data) {
		p.errorf("currents.json: not valid JSON")
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
