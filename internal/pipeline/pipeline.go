package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/couchcryptid/gulf-ocean-etl/internal/observability"
)

// Searcher queries the discovery catalogue.
type Searcher interface {
	Search(ctx context.Context, collection string, limit int, extra url.Values) []domain.Feature
}

// TextFetcher retrieves a plain-text document.
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string, timeout time.Duration) (string, error)
}

// TrackSource reads trajectories from ERDDAP.
type TrackSource interface {
	GliderTrack(ctx context.Context, base, datasetID string) ([]domain.Position, error)
	DrifterTrack(ctx context.Context, srcURL string) ([]domain.Position, error)
}

// WaterLevelSource reads the latest tide gauge level for a station.
type WaterLevelSource interface {
	WaterLevel(ctx context.Context, station string) (*domain.WaterLevel, error)
}

// Store persists output documents.
type Store interface {
	Save(name string, v any) ([]byte, error)
	SaveRaw(name string, body []byte) error
	LoadStations() (*domain.StationFile, error)
	SaveStations(f *domain.StationFile) ([]byte, error)
}

// Publisher receives a copy of every document written.
type Publisher interface {
	Publish(ctx context.Context, category string, data []byte, updated string) error
}

// Sources groups the upstream clients a run reads from.
type Sources struct {
	Catalog     Searcher
	Text        TextFetcher
	Tracks      TrackSource
	WaterLevels WaterLevelSource
}

// Options carries the endpoint and cap settings the extractors need.
type Options struct {
	NDBCURL         string
	CurrentsURL     string
	GliderERDDAPURL string
	BuoyLiveLimit   int
	TideLiveLimit   int
}

// Category names, in run order.
const (
	CategoryHypoxia   = "hypoxia"
	CategoryCurrents  = "currents"
	CategorySensors   = "sensors"
	CategoryBuoys     = "buoys"
	CategoryTides     = "tides"
	CategoryGliders   = "gliders"
	CategoryDrifters  = "drifters"
	CategoryIncidents = "incidents"
	CategoryProbes    = "probes"
)

// Pipeline runs one update pass over every category.
type Pipeline struct {
	src       Sources
	store     Store
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. publisher may be nil.
func New(src Sources, store Store, publisher Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		src:       src,
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Report lists the outcome of each category in a run.
type Report struct {
	Succeeded []string
	Skipped   []string
	Failed    []string
}

type category struct {
	name string
	run  func(ctx context.Context) error
}

func (p *Pipeline) categories() []category {
	return []category{
		{CategoryHypoxia, p.updateHypoxia},
		{CategoryCurrents, p.updateCurrents},
		{CategorySensors, p.updateSensors},
		{CategoryBuoys, p.updateBuoys},
		{CategoryTides, p.updateTides},
		{CategoryGliders, p.updateGliders},
		{CategoryDrifters, p.updateDrifters},
		{CategoryIncidents, p.updateIncidents},
		{CategoryProbes, p.updateProbes},
	}
}

// Run updates every category in order. A failing category is logged and its
// previous output left in place; the remaining categories still run.
func (p *Pipeline) Run(ctx context.Context) Report {
	var report Report
	for _, c := range p.categories() {
		start := time.Now()
		err := p.runCategory(ctx, c)
		switch {
		case err == nil:
			report.Succeeded = append(report.Succeeded, c.name)
			p.metrics.CategoryRuns.WithLabelValues(c.name, "success").Inc()
			p.logger.Info("category updated", "category", c.name, "duration", time.Since(start))
		case isSkip(err):
			report.Skipped = append(report.Skipped, c.name)
			p.metrics.CategoryRuns.WithLabelValues(c.name, "skipped").Inc()
			p.logger.Warn("category skipped", "category", c.name, "reason", err)
		default:
			report.Failed = append(report.Failed, c.name)
			p.metrics.CategoryRuns.WithLabelValues(c.name, "error").Inc()
			p.logger.Error("category failed", "category", c.name, "error", err)
		}
	}
	return report
}

func (p *Pipeline) runCategory(ctx context.Context, c category) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", c.name, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.run(ctx)
}

// saveDocument writes doc, records its size and hands the written bytes to
// the publisher. Nothing is written once ctx is done, so the previous file
// stays in place.
func saveDocument[T any](ctx context.Context, p *Pipeline, category, file string, doc domain.Document[T]) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s not written: %w", file, err)
	}
	data, err := p.store.Save(file, doc)
	if err != nil {
		return err
	}
	p.metrics.RecordsWritten.WithLabelValues(category).Set(float64(doc.Count))
	p.metrics.OutputBytes.WithLabelValues(category).Set(float64(len(data)))
	p.logger.Info("document written", "category", category, "file", file, "count", doc.Count)
	p.publish(ctx, category, data, doc.Updated)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, category string, data []byte, updated string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, category, data, updated); err != nil {
		p.logger.Warn("snapshot publish failed", "category", category, "error", err)
	}
}
