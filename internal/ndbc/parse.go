// Package ndbc parses National Data Buoy Center realtime2 text feeds.
//
// Each station publishes whitespace-aligned tables, newest row first:
//
//	#YY  MM DD hh mm  DEPTH  OTMP   COND   SAL  O2% O2PPM  CLCON  TURB    PH    EH
//	#yr  mo dy hr mn      m  degC   mS/cm  psu    %   ppm   ug/l   FTU     -    mv
//	2024 04 26 15 00    1.0 24.61     MM 35.10   MM  6.12     MM    MM  8.05    MM
//
// The first line names the columns, the second gives units, data follows.
// "MM" marks a missing value, but some stations also emit 99.0, 999.0 or
// 9999.0 style fill values that parse as numbers, so those are filtered too.
//
// Parsers scan a short window of the most recent rows and keep the first
// valid value seen for each field. A field that is never valid in the window
// is left out of the reading rather than reported as zero.
package ndbc

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Scan windows, in data rows after the two header lines.
const (
	oceanRows = 48
	metRows   = 8
)

// Reading is a sparse set of named values plus the observation time of the
// newest row with a valid date. ObservedAt is zero when no row had one.
type Reading struct {
	Values     map[string]float64
	ObservedAt time.Time
}

// Has reports whether the named value is present.
func (r Reading) Has(key string) bool {
	_, ok := r.Values[key]
	return ok
}

type field struct {
	key    string
	column string
}

var oceanFields = []field{
	{"do", "O2PPM"},
	{"temp", "OTMP"},
	{"sal", "SAL"},
	{"ph", "PH"},
	{"turb", "TURB"},
}

var metFields = []field{
	{"wspd", "WSPD"},
	{"wdir", "WDIR"},
	{"wvht", "WVHT"},
	{"dpd", "DPD"},
	{"pres", "PRES"},
	{"atmp", "ATMP"},
	{"wtmp", "WTMP"},
}

// missing holds the fill values NDBC stations use for "no data".
var missing = map[string]bool{
	"MM":     true,
	"99.0":   true,
	"999.0":  true,
	"9999.0": true,
	"99.00":  true,
	"999":    true,
	"9999":   true,
}

// IsMissing reports whether s is a known missing-value marker.
func IsMissing(s string) bool {
	return missing[s]
}

// ParseOcean extracts dissolved oxygen, water temperature, salinity, pH and
// turbidity from a .ocean feed. Values of 99 or more are fill values for every
// column except DEPTH. Scanning stops once both dissolved oxygen and
// temperature are found. It reports false when no value was found.
func ParseOcean(text string) (Reading, bool) {
	lines, ok := splitFeed(text)
	if !ok {
		return Reading{}, false
	}
	cols := columnIndex(lines[0])
	r := Reading{Values: map[string]float64{}}

	for _, line := range window(lines, oceanRows) {
		parts := strings.Fields(line)
		if len(parts) < 5 {
			continue
		}
		observed, parsed, valid := rowTime(parts, cols)
		if !parsed {
			continue
		}
		if r.ObservedAt.IsZero() && valid {
			r.ObservedAt = observed
		}

		for _, f := range oceanFields {
			if r.Has(f.key) {
				continue
			}
			if v, ok := oceanValue(parts, cols, f.column); ok {
				r.Values[f.key] = v
			}
		}
		if r.Has("do") && r.Has("temp") {
			break
		}
	}

	if len(r.Values) == 0 {
		return Reading{}, false
	}
	return r, true
}

// ParseMet extracts wind, wave, pressure and temperature values from a .txt
// standard meteorological feed. Rows with fewer than ten columns are skipped
// and scanning stops once four values are found. Values of 999 or more are
// treated as fill, except pressure which routinely exceeds that and relies on
// its 9999.0 marker instead.
func ParseMet(text string) (Reading, bool) {
	lines, ok := splitFeed(text)
	if !ok {
		return Reading{}, false
	}
	cols := columnIndex(lines[0])
	r := Reading{Values: map[string]float64{}}

	for _, line := range window(lines, metRows) {
		parts := strings.Fields(line)
		if len(parts) < 10 {
			continue
		}
		for _, f := range metFields {
			if r.Has(f.key) {
				continue
			}
			if v, ok := metValue(parts, cols, f.column); ok {
				r.Values[f.key] = v
			}
		}
		if len(r.Values) >= 4 {
			break
		}
	}

	if len(r.Values) == 0 {
		return Reading{}, false
	}
	return r, true
}

// ParseWaterTemp is the fallback for stations without a .ocean feed: the
// first plausible WTMP value from a .txt feed, reported as "temp". Anything at
// or above 50 degC is a fill value.
func ParseWaterTemp(text string) (Reading, bool) {
	lines, ok := splitFeed(text)
	if !ok {
		return Reading{}, false
	}
	cols := columnIndex(lines[0])
	idx, ok := cols["WTMP"]
	if !ok {
		return Reading{}, false
	}

	for _, line := range window(lines, metRows) {
		parts := strings.Fields(line)
		if len(parts) < 5 || idx >= len(parts) {
			continue
		}
		v, ok := parseNumber(parts[idx])
		if ok && v < 50 {
			return Reading{Values: map[string]float64{"temp": v}}, true
		}
	}
	return Reading{}, false
}

func splitFeed(text string) ([]string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return nil, false
	}
	return lines, true
}

// window returns up to n data rows, skipping the column and unit headers.
func window(lines []string, n int) []string {
	rows := lines[2:]
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func columnIndex(header string) map[string]int {
	cols := map[string]int{}
	for i, name := range strings.Fields(header) {
		cols[name] = i
	}
	return cols
}

func indexOr(cols map[string]int, def int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return def
}

// rowTime reads the YY MM DD hh mm columns. parsed is false when any of them is
// absent or not an integer; valid is false when they do not form a real
// calendar date.
func rowTime(parts []string, cols map[string]int) (t time.Time, parsed, valid bool) {
	idx := []int{
		indexOr(cols, 0, "#YY", "YY"),
		indexOr(cols, 1, "MM"),
		indexOr(cols, 2, "DD"),
		indexOr(cols, 3, "hh"),
		indexOr(cols, 4, "mm"),
	}
	var v [5]int
	for i, col := range idx {
		if col >= len(parts) {
			return time.Time{}, false, false
		}
		n, err := strconv.Atoi(parts[col])
		if err != nil {
			return time.Time{}, false, false
		}
		v[i] = n
	}

	year, month, day, hour, minute := v[0], v[1], v[2], v[3], v[4]
	if month < 1 || month > 12 || hour < 0 || hour > 23 || minute < 0 || minute > 59 || day < 1 {
		return time.Time{}, true, false
	}
	t = time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, true, false
	}
	return t, true, true
}

// parseNumber parses a finite value that is not a missing marker.
func parseNumber(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func lookup(parts []string, cols map[string]int, column string) (string, bool) {
	idx, ok := cols[column]
	if !ok || idx >= len(parts) {
		return "", false
	}
	return parts[idx], true
}

func oceanValue(parts []string, cols map[string]int, column string) (float64, bool) {
	s, ok := lookup(parts, cols, column)
	if !ok {
		return 0, false
	}
	v, ok := parseNumber(s)
	if !ok || (v >= 99 && column != "DEPTH") {
		return 0, false
	}
	return v, true
}

func metValue(parts []string, cols map[string]int, column string) (float64, bool) {
	s, ok := lookup(parts, cols, column)
	if !ok {
		return 0, false
	}
	v, ok := parseNumber(s)
	if !ok || (v >= 999 && column != "PRES") {
		return 0, false
	}
	return v, true
}

// OceanURL is the .ocean feed for station under base.
func OceanURL(base, station string) string {
	return strings.TrimSuffix(base, "/") + "/" + station + ".ocean"
}

// TextURL is the .txt standard meteorological feed for station under base.
func TextURL(base, station string) string {
	return strings.TrimSuffix(base, "/") + "/" + station + ".txt"
}
