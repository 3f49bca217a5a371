package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/couchcryptid/gulf-ocean-etl/internal/ndbc"
)

const (
	stationFeedTimeout = 20 * time.Second
	currentsTimeout    = 60 * time.Second
	currentsFile       = "currents.json"
)

// errSkipped marks a category that had nothing to do.
var errSkipped = errors.New("skipped")

func isSkip(err error) bool {
	return errors.Is(err, errSkipped)
}

// updateHypoxia refreshes the "current" block of every curated station in
// place from the NDBC ocean feed, falling back to the water temperature in
// the standard met feed.
func (p *Pipeline) updateHypoxia(ctx context.Context) error {
	f, err := p.store.LoadStations()
	if errors.Is(err, domain.ErrNoStationFile) {
		return fmt.Errorf("%w: %w", errSkipped, err)
	}
	if err != nil {
		return err
	}

	updated := 0
	for _, st := range f.Stations {
		id := st.ID()
		if id == "" {
			continue
		}
		reading, ok := p.stationReading(ctx, id)
		if !ok {
			p.logger.Debug("no station reading", "station", id)
			continue
		}
		st.Merge(reading.Values, reading.ObservedAt)
		updated++
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stations not written: %w", err)
	}
	f.Updated = domain.Timestamp(domain.Now())

	data, err := p.store.SaveStations(f)
	if err != nil {
		return err
	}
	p.metrics.RecordsWritten.WithLabelValues(CategoryHypoxia).Set(float64(len(f.Stations)))
	p.metrics.OutputBytes.WithLabelValues(CategoryHypoxia).Set(float64(len(data)))
	p.metrics.LiveReadings.WithLabelValues(CategoryHypoxia).Add(float64(updated))
	p.logger.Info("stations updated", "updated", updated, "total", len(f.Stations))
	p.publish(ctx, CategoryHypoxia, data, f.Updated)
	return nil
}

func (p *Pipeline) stationReading(ctx context.Context, id string) (ndbc.Reading, bool) {
	if text, err := p.src.Text.FetchText(ctx, ndbc.OceanURL(p.opts.NDBCURL, id), stationFeedTimeout); err == nil {
		if r, ok := ndbc.ParseOcean(text); ok {
			return r, true
		}
	}
	text, err := p.src.Text.FetchText(ctx, ndbc.TextURL(p.opts.NDBCURL, id), stationFeedTimeout)
	if err != nil {
		return ndbc.Reading{}, false
	}
	return ndbc.ParseWaterTemp(text)
}

// updateCurrents stores the CoastWatch current-vector grid exactly as served.
func (p *Pipeline) updateCurrents(ctx context.Context) error {
	body, err := p.src.Text.FetchText(ctx, p.opts.CurrentsURL, currentsTimeout)
	if err != nil {
		return fmt.Errorf("fetch currents: %w", err)
	}
	if body == "" {
		return errors.New("fetch currents: empty body")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("currents not written: %w", err)
	}
	data := []byte(body)
	if err := p.store.SaveRaw(currentsFile, data); err != nil {
		return err
	}
	p.metrics.OutputBytes.WithLabelValues(CategoryCurrents).Set(float64(len(data)))
	p.publish(ctx, CategoryCurrents, data, domain.Timestamp(domain.Now()))
	return nil
}
