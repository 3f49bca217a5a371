package domain

import (
	"math"
	"strings"
)

// Output caps. See the package documentation.
const (
	TitleLen         = 80
	IncidentTitleLen = 120
	DescLen          = 300
	SourceURLLen     = 200
	MaxTrackPoints   = 200
)

// Round4 rounds to four decimal places, half away from zero.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// CapStrings returns at most the first n entries of v. The result is never nil.
func CapStrings(v []string, n int) []string {
	if len(v) > n {
		v = v[:n]
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// StationID strips the collection prefix from a discovery id, e.g.
// "NDBC_42001" -> "42001".
func StationID(id string) string {
	if i := strings.LastIndex(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// SubsampleTrack returns at most limit positions from track at an even
// stride. Indices are strictly increasing and the last position is always
// included. Tracks already within the limit are returned unchanged.
func SubsampleTrack(track []Position, limit int) []Position {
	n := len(track)
	if n <= limit {
		return track
	}
	if limit <= 1 {
		return []Position{track[n-1]}
	}
	out := make([]Position, 0, limit)
	for i := range limit {
		out = append(out, track[i*(n-1)/(limit-1)])
	}
	return out
}

// LastN returns the final n positions of track.
func LastN(track []Position, n int) []Position {
	if len(track) <= n {
		return track
	}
	return track[len(track)-n:]
}

// RoundTrack rounds every position of track to four decimals.
func RoundTrack(track []Position) []Position {
	out := make([]Position, len(track))
	for i, p := range track {
		out[i] = p.Rounded()
	}
	return out
}
