package pipeline

import (
	"context"
	"strings"

	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/erddap"
	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
)

// Titles containing any of these are treated as glider missions.
var gliderKeywords = []string{"glider", "slocum", "spray", "seaglider", "sg", "ru", "usf"}

// catalogTrackPoints bounds a track taken from catalogue geometry.
const catalogTrackPoints = 100

func isGlider(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range gliderKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func (p *Pipeline) updateGliders(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "IOOS", 100, nil)

	gliders := make([]domain.Glider, 0, len(features))
	for _, f := range features {
		title := f.TitleOr(f.ID)
		if !isGlider(title) {
			continue
		}
		src := f.Properties.SourceURL
		track, ok := p.gliderTrack(ctx, f, src)
		if !ok {
			p.logger.Debug("glider has no usable geometry", "id", f.ID)
			continue
		}
		start := f.Properties.StartDatetime
		if start == "" {
			start = f.Properties.Datetime
		}
		gliders = append(gliders, domain.Glider{
			ID:    f.ID,
			Title: domain.Truncate(title, domain.TitleLen),
			Track: track,
			Vars:  domain.CapStrings(f.Properties.Variables, 6),
			Start: start,
			End:   f.Properties.EndDatetime,
			Src:   domain.Truncate(src, domain.SourceURLLen),
		})
	}
	return saveDocument(ctx, p, CategoryGliders, "gliders.json", domain.NewDocument("gliders", gliders))
}

// gliderTrack prefers the ERDDAP trajectory and falls back to the catalogue
// geometry, then to the centre of the feature's bbox.
func (p *Pipeline) gliderTrack(ctx context.Context, f domain.Feature, src string) ([]domain.Position, bool) {
	base := erddap.GliderBase(src, p.opts.GliderERDDAPURL)
	track, err := p.src.Tracks.GliderTrack(ctx, base, f.ID)
	if err != nil {
		p.logger.Debug("glider track unavailable", "id", f.ID, "error", err)
	}
	if len(track) > 1 {
		return track, true
	}

	if positions, ok := f.Geometry.Positions(); ok {
		if f.Geometry.Type != domain.GeometryLineString || len(positions) >= 2 {
			return domain.RoundTrack(domain.LastN(positions, catalogTrackPoints)), true
		}
	}
	if pos, ok := f.Geometry.Point(); ok {
		return []domain.Position{pos.Rounded()}, true
	}
	if len(f.BBox) >= 4 {
		centre := domain.Position{(f.BBox[0] + f.BBox[2]) / 2, (f.BBox[1] + f.BBox[3]) / 2}
		return []domain.Position{centre.Rounded()}, true
	}
	return nil, false
}

func (p *Pipeline) updateDrifters(ctx context.Context) error {
	features := p.src.Catalog.Search(ctx, "NOAA_GDP", 50, nil)

	drifters := make([]domain.Drifter, 0, len(features))
	for _, f := range features {
		title := domain.Truncate(f.TitleOr(f.ID), domain.TitleLen)
		src := f.Properties.SourceURL

		if erddap.IsDataset(src) {
			track, err := p.src.Tracks.DrifterTrack(ctx, src)
			if err != nil {
				p.logger.Debug("drifter track unavailable", "id", f.ID, "error", err)
			}
			if len(track) > 0 {
				drifters = append(drifters, domain.Drifter{
					ID:    f.ID,
					Title: title,
					Track: domain.LastN(track, domain.MaxTrackPoints),
					Count: len(track),
					Src:   domain.Truncate(src, domain.SourceURLLen),
				})
				continue
			}
		}

		pos, ok := f.Geometry.Point()
		if !ok {
			continue
		}
		drifters = append(drifters, domain.Drifter{
			ID:    f.ID,
			Title: title,
			Track: []domain.Position{pos.Rounded()},
			Count: 1,
			Src:   domain.Truncate(src, domain.SourceURLLen),
		})
	}
	return saveDocument(ctx, p, CategoryDrifters, "drifters.json", domain.NewDocument("drifters", drifters))
}
