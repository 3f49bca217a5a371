package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is one category output file: an update stamp, the item count, and
// the items under a category-specific key.
type Document[T any] struct {
	Updated string
	Count   int
	Key     string
	Items   []T
}

// NewDocument stamps items with the current time. Count always equals len(items),
// and a nil slice is written as an empty list.
func NewDocument[T any](key string, items []T) Document[T] {
	if items == nil {
		items = []T{}
	}
	return Document[T]{
		Updated: Timestamp(Now()),
		Count:   len(items),
		Key:     key,
		Items:   items,
	}
}

// MarshalJSON writes {"updated", "count", <Key>} in that order.
func (d Document[T]) MarshalJSON() ([]byte, error) {
	items, err := MarshalCompact(d.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", d.Key, err)
	}
	updated, _ := MarshalCompact(d.Updated)
	key, _ := MarshalCompact(d.Key)

	var buf bytes.Buffer
	buf.WriteString(`{"updated":`)
	buf.Write(updated)
	fmt.Fprintf(&buf, `,"count":%d,`, d.Count)
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(items)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalCompact encodes v without whitespace and without HTML escaping, so
// URLs keep their literal "&" in the published files.
func MarshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Sensor is an IOOS sensor network asset.
type Sensor struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Vars  []string `json:"vars"`
	Src   string   `json:"src"`
	Org   string   `json:"org"`
}

// Buoy is an NDBC weather buoy with an optional live meteorological reading.
type Buoy struct {
	ID      string             `json:"id"`
	Lat     float64            `json:"lat"`
	Lon     float64            `json:"lon"`
	Title   string             `json:"title"`
	Vars    []string           `json:"vars"`
	Current map[string]float64 `json:"current,omitempty"`
}

// TideStation is a CO-OPS water level station.
type TideStation struct {
	ID      string      `json:"id"`
	Lat     float64     `json:"lat"`
	Lon     float64     `json:"lon"`
	Title   string      `json:"title"`
	Vars    []string    `json:"vars"`
	Src     string      `json:"src"`
	Current *WaterLevel `json:"current,omitempty"`
}

// WaterLevel is the latest CO-OPS water level (metres above MLLW) and its
// observation time as reported by the API.
type WaterLevel struct {
	WL   float64 `json:"wl"`
	Time string  `json:"time"`
}

// Glider is an underwater glider mission with its trajectory.
type Glider struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Track []Position `json:"track"`
	Vars  []string   `json:"vars"`
	Start string     `json:"start"`
	End   string     `json:"end"`
	Src   string     `json:"src"`
}

// Drifter is a NOAA Global Drifter Program dataset. Count is the number of
// positions retrieved, which may exceed len(Track).
type Drifter struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Track []Position `json:"track"`
	Count int        `json:"count"`
	Src   string     `json:"src"`
}

// Incident is an oil spill or pollution report.
type Incident struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Date  string  `json:"date"`
	Desc  string  `json:"desc"`
	URL   string  `json:"url"`
}

// Probe is a PMEL hurricane monitoring platform.
type Probe struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Vars  []string `json:"vars"`
	Date  string   `json:"date"`
	Src   string   `json:"src"`
}
