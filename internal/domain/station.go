package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoStationFile reports that the curated station list does not exist yet.
var ErrNoStationFile = errors.New("station file not found")

// StationFile is the curated hypoxia station list. Only "updated" and each
// station's "current" object are rewritten; every other field round-trips.
type StationFile struct {
	Updated  string
	Stations []Station
	fields   map[string]json.RawMessage
}

// Station is one curated station record, kept as a generic object so fields
// this job does not know about survive a rewrite.
type Station map[string]any

// UnmarshalJSON decodes a station file. Numbers are kept as json.Number so
// they are written back exactly as read.
func (f *StationFile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields["stations"]
	if !ok {
		return errors.New("station file has no stations")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var stations []Station
	if err := dec.Decode(&stations); err != nil {
		return fmt.Errorf("decode stations: %w", err)
	}
	if u, ok := fields["updated"]; ok {
		_ = json.Unmarshal(u, &f.Updated)
	}
	delete(fields, "stations")
	delete(fields, "updated")

	f.fields = fields
	f.Stations = stations
	return nil
}

// MarshalJSON writes the file back with its unknown fields.
func (f StationFile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.fields)+2)
	for k, v := range f.fields {
		out[k] = v
	}
	out["updated"] = f.Updated
	stations := f.Stations
	if stations == nil {
		stations = []Station{}
	}
	out["stations"] = stations
	return MarshalCompact(out)
}

// ID returns the station identifier as text.
func (s Station) ID() string {
	switch v := s["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Current returns the station's "current" object, creating it when it is
// missing, null, or not an object.
func (s Station) Current() map[string]any {
	if cur, ok := s["current"].(map[string]any); ok {
		return cur
	}
	cur := map[string]any{}
	s["current"] = cur
	return cur
}

// Merge overwrites the given reading keys in "current" and leaves all other
// keys in place. A non-zero observedAt is stored as "last_obs".
func (s Station) Merge(values map[string]float64, observedAt time.Time) {
	cur := s.Current()
	for k, v := range values {
		cur[k] = v
	}
	if !observedAt.IsZero() {
		cur["last_obs"] = Timestamp(observedAt)
	}
}
