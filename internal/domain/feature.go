package domain

import "encoding/json"

// Geometry type names used by the discovery API.
const (
	GeometryPoint      = "Point"
	GeometryMultiPoint = "MultiPoint"
	GeometryLineString = "LineString"
)

// Feature is one asset returned by a discovery search.
type Feature struct {
	ID         string     `json:"id"`
	Geometry   *Geometry  `json:"geometry"`
	Properties Properties `json:"properties"`
	BBox       []float64  `json:"bbox,omitempty"`
	Links      []Link     `json:"links,omitempty"`
}

// Properties holds the descriptive fields of a feature. AQUAVIEW namespaces its
// own extensions with an "aquaview:" prefix.
type Properties struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Datetime      string    `json:"datetime"`
	StartDatetime string    `json:"start_datetime"`
	EndDatetime   string    `json:"end_datetime"`
	Variables     Variables `json:"aquaview:variables"`
	SourceURL     string    `json:"aquaview:source_url"`
	Organization  string    `json:"aquaview:organization"`
}

// Link is a STAC link object.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Variables is a list of measured variable names. A bare string decodes as a
// one-element list; non-string entries and any other shape are dropped instead
// of failing the whole feature.
type Variables []string

func (v *Variables) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*v = Variables{single}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*v = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if len(r) == 0 || r[0] != '"' {
			continue
		}
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
		}
	}
	*v = out
	return nil
}

// Position is a [lon, lat] pair in GeoJSON order.
type Position [2]float64

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// Rounded returns the position with both axes rounded to four decimals.
func (p Position) Rounded() Position {
	return Position{Round4(p[0]), Round4(p[1])}
}

// Geometry is a GeoJSON geometry whose coordinates are decoded lazily, since
// their nesting depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point decodes a Point geometry. It reports false for other types or for
// coordinates that are missing, null, or shorter than two axes.
func (g *Geometry) Point() (Position, bool) {
	if g == nil || g.Type != GeometryPoint {
		return Position{}, false
	}
	return decodePosition(g.Coordinates)
}

// Positions decodes a MultiPoint or LineString geometry. Malformed positions
// are dropped; it reports false when nothing usable remains.
func (g *Geometry) Positions() ([]Position, bool) {
	if g == nil || (g.Type != GeometryMultiPoint && g.Type != GeometryLineString) {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, false
	}
	out := make([]Position, 0, len(raw))
	for _, r := range raw {
		if p, ok := decodePosition(r); ok {
			out = append(out, p)
		}
	}
	return out, len(out) > 0
}

func decodePosition(data json.RawMessage) (Position, bool) {
	var axes []*float64
	if err := json.Unmarshal(data, &axes); err != nil {
		return Position{}, false
	}
	if len(axes) < 2 || axes[0] == nil || axes[1] == nil {
		return Position{}, false
	}
	return Position{*axes[0], *axes[1]}, true
}

// AlternateLink returns the href of the first link with rel "alternate".
func (f Feature) AlternateLink() string {
	for _, l := range f.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}
	return ""
}

// Date returns the feature's datetime, falling back to start_datetime.
func (f Feature) Date() string {
	if f.Properties.Datetime != "" {
		return f.Properties.Datetime
	}
	return f.Properties.StartDatetime
}

// TitleOr returns the feature title, or fallback when the title is empty.
func (f Feature) TitleOr(fallback string) string {
	if f.Properties.Title != "" {
		return f.Properties.Title
	}
	return fallback
}
