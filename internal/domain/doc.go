// Package domain models the Gulf of Mexico ocean observing data that the
// updater publishes as static JSON.
//
// # Data Sources
//
// Assets are discovered through the AQUAVIEW STAC search API, which indexes
// IOOS, NDBC, CO-OPS, NOAA GDP, PMEL and IncidentNews records. Each search
// result is a GeoJSON feature:
//
//	{"id": "NDBC_42001",
//	 "geometry": {"type": "Point", "coordinates": [-89.658, 25.897]},
//	 "properties": {"title": "...", "aquaview:variables": ["WSPD", ...],
//	                "aquaview:source_url": "...", "datetime": "..."},
//	 "bbox": [...], "links": [{"rel": "alternate", "href": "..."}]}
//
// Coordinates are GeoJSON order, [lon, lat]. Point features carry one
// position; MultiPoint and LineString carry a list of positions.
//
// # Station IDs
//
// AQUAVIEW prefixes upstream identifiers with the collection, e.g. "NDBC_42001"
// or "COOPS_8729108". The upstream id is the last "_" segment; ids without an
// underscore are used as-is. See [StationID].
//
// # Output Conventions
//
// Every category document has the shape
//
//	{"updated": "2024-04-26T15:10:00Z", "count": N, "<items>": [...]}
//
// with count equal to the number of items. Positions are rounded to four
// decimal places (about 11 m), half away from zero. Free text is capped by
// rune count so output files stay small:
//
//	titles        80 runes (incidents 120)
//	descriptions 300 runes
//	source URLs  200 runes
//	variables    6, 8 or 10 names depending on category
//
// Tracks are [[lon, lat], ...] ordered oldest to newest and capped at 200
// points. Long trajectories are subsampled at an even stride that always keeps
// the final (most recent) position. See [SubsampleTrack].
package domain
