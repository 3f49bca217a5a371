package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/couchcryptid/gulf-ocean-etl/internal/ndbc"
)

const buoyFeedTimeout = 10 * time.Second

const untitledIncident = "Unknown Incident"

// location returns a feature's rounded Point position, or the first position
// of a MultiPoint when allowMulti is set.
func location(f domain.Feature, allowMulti bool) (domain.Position, bool) {
	if pos, ok := f.Geometry.Point(); ok {
		return pos.Rounded(), true
	}
	if !allowMulti || f.Geometry == nil || f.Geometry.Type != domain.GeometryMultiPoint {
		return domain.Position{}, false
	}
	positions, ok := f.Geometry.Positions()
	if !ok {
		return domain.Position{}, false
	}
	return positions[0].Rounded(), true
}

func (p *Pipeline) updateSensors(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "IOOS_SENSORS", 500, nil)

	sensors := make([]domain.Sensor, 0, len(features))
	for _, f := range features {
		pos, ok := location(f, true)
		if !ok {
			continue
		}
		sensors = append(sensors, domain.Sensor{
			ID:    f.ID,
			Title: domain.Truncate(f.TitleOr(f.ID), domain.TitleLen),
			Lat:   pos.Lat(),
			Lon:   pos.Lon(),
			Vars:  domain.CapStrings(f.Properties.Variables, 10),
			Src:   domain.Truncate(f.Properties.SourceURL, domain.SourceURLLen),
			Org:   f.Properties.Organization,
		})
	}
	return saveDocument(ctx, p, CategorySensors, "ioos_sensors.json", domain.NewDocument("sensors", sensors))
}

// updateBuoys lists NDBC buoys and attaches a live meteorological reading
// to the leading BuoyLiveLimit records.
func (p *Pipeline) updateBuoys(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "NDBC", 400, nil)

	buoys := make([]domain.Buoy, 0, len(features))
	live := 0
	for _, f := range features {
		pos, ok := location(f, false)
		if !ok {
			continue
		}
		id := domain.StationID(f.ID)
		b := domain.Buoy{
			ID:    id,
			Lat:   pos.Lat(),
			Lon:   pos.Lon(),
			Title: domain.Truncate(f.TitleOr(id), domain.TitleLen),
			Vars:  domain.CapStrings(f.Properties.Variables, 8),
		}
		if len(buoys) < p.opts.BuoyLiveLimit {
			if r, ok := p.metReading(ctx, id); ok {
				b.Current = r.Values
				live++
			}
		}
		buoys = append(buoys, b)
	}

	p.metrics.LiveReadings.WithLabelValues(CategoryBuoys).Add(float64(live))
	p.logger.Info("buoy readings", "buoys", len(buoys), "live", live)
	return saveDocument(ctx, p, CategoryBuoys, "ndbc_met.json", domain.NewDocument("buoys", buoys))
}

func (p *Pipeline) metReading(ctx context.Context, station string) (ndbc.Reading, bool) {
	text, err := p.src.Text.FetchText(ctx, ndbc.TextURL(p.opts.NDBCURL, station), buoyFeedTimeout)
	if err != nil {
		p.logger.Debug("met feed unavailable", "station", station, "error", err)
		return ndbc.Reading{}, false
	}
	return ndbc.ParseMet(text)
}

// updateTides lists CO-OPS stations and attaches the latest water level to
// the leading TideLiveLimit records.
func (p *Pipeline) updateTides(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "COOPS", 200, nil)

	stations := make([]domain.TideStation, 0, len(features))
	for _, f := range features {
		pos, ok := location(f, false)
		if !ok {
			continue
		}
		id := domain.StationID(f.ID)
		stations = append(stations, domain.TideStation{
			ID:    id,
			Lat:   pos.Lat(),
			Lon:   pos.Lon(),
			Title: domain.Truncate(f.TitleOr(id), domain.TitleLen),
			Vars:  domain.CapStrings(f.Properties.Variables, 6),
			Src:   domain.Truncate(f.Properties.SourceURL, domain.SourceURLLen),
		})
	}

	live := 0
	for i := range stations {
		if i >= p.opts.TideLiveLimit {
			break
		}
		wl, err := p.src.WaterLevels.WaterLevel(ctx, stations[i].ID)
		if err != nil {
			p.logger.Debug("water level unavailable", "station", stations[i].ID, "error", err)
			continue
		}
		stations[i].Current = wl
		live++
	}

	p.metrics.LiveReadings.WithLabelValues(CategoryTides).Add(float64(live))
	p.logger.Info("tide readings", "stations", len(stations), "live", live)
	return saveDocument(ctx, p, CategoryTides, "coops.json", domain.NewDocument("stations", stations))
}

// incidentWindow limits incident searches to reports since January 1 two
// years before the current year.
func incidentWindow(now time.Time) url.Values {
	start := time.Date(now.Year()-2, time.January, 1, 0, 0, 0, 0, time.UTC)
	return url.Values{"datetime": {fmt.Sprintf("%s/..", domain.Timestamp(start))}}
}

func (p *Pipeline) updateIncidents(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "INCIDENT_NEWS", 300, incidentWindow(domain.Now()))

	incidents := make([]domain.Incident, 0, len(features))
	for _, f := range features {
		pos, ok := location(f, false)
		if !ok {
			continue
		}
		incidents = append(incidents, domain.Incident{
			ID:    f.ID,
			Title: domain.Truncate(f.TitleOr(untitledIncident), domain.IncidentTitleLen),
			Lat:   pos.Lat(),
			Lon:   pos.Lon(),
			Date:  f.Date(),
			Desc:  domain.Truncate(f.Properties.Description, domain.DescLen),
			URL:   f.AlternateLink(),
		})
	}
	// Dates are compared as raw strings, newest first.
	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].Date > incidents[j].Date
	})
	return saveDocument(ctx, p, CategoryIncidents, "incidents.json", domain.NewDocument("incidents", incidents))
}

func (p *Pipeline) updateProbes(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "PMEL", 100, nil)

	probes := make([]domain.Probe, 0, len(features))
	for _, f := range features {
		pos, ok := location(f, false)
		if !ok {
			continue
		}
		probes = append(probes, domain.Probe{
			ID:    f.ID,
			Title: domain.Truncate(f.TitleOr(f.ID), domain.TitleLen),
			Lat:   pos.Lat(),
			Lon:   pos.Lon(),
			Vars:  domain.CapStrings(f.Properties.Variables, 6),
			Date:  f.Date(),
			Src:   domain.Truncate(f.Properties.SourceURL, domain.SourceURLLen),
		})
	}
	return saveDocument(ctx, p, CategoryProbes, "pmel.json", domain.NewDocument("probes", probes))
}
