// Command genmock replays recorded upstream responses through the real
// updater pipeline and writes a reproducible data directory for the static
// site. The clock is frozen so every "updated" stamp is stable.
//
// The fixture directory mirrors the upstream sources:
//
//	search/<COLLECTION>.json   discovery search responses
//	ndbc/<station>.ocean|.txt  NDBC realtime2 feeds
//	coops/<station>.json       CO-OPS water level responses
//	erddap/<dataset>.json      ERDDAP tabledap responses
//	currents.json              CoastWatch currents grid
//	latest.json                curated hypoxia stations (copied as the seed)
//
// Usage:
//
//	go run ./cmd/genmock -fixtures data/mock -out docs/data
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/aquaview"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/coops"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/erddap"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/fetch"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/filestore"
	"github.com/couchcryptid/gulf-ocean-etl/internal/config"
	"github.com/couchcryptid/gulf-ocean-etl/internal/domain"
	"github.com/couchcryptid/gulf-ocean-etl/internal/observability"
	"github.com/couchcryptid/gulf-ocean-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

var baseDate = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixtures := flag.String("fixtures", "", "directory of recorded upstream responses")
	out := flag.String("out", "", "output data directory")
	flag.Parse()

	if *fixtures == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -fixtures, -out")
	}

	// Set a fixed clock for reproducible document timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()
	store := filestore.New(*out, logger)

	if err := seedStations(*fixtures, store); err != nil {
		return err
	}

	srv := httptest.NewServer(replayHandler(*fixtures))
	defer srv.Close()

	client := fetch.NewClient(config.DefaultUserAgent, metrics, logger)
	p := pipeline.New(
		pipeline.Sources{
			Catalog:     aquaview.NewClient(srv.URL, client, logger),
			Text:        client,
			Tracks:      erddap.NewClient(client),
			WaterLevels: coops.NewClient(srv.URL+"/coops", client),
		},
		store,
		nil,
		pipeline.Options{
			NDBCURL:         srv.URL + "/ndbc",
			CurrentsURL:     srv.URL + "/currents.json",
			GliderERDDAPURL: srv.URL + "/erddap",
			BuoyLiveLimit:   200,
			TideLiveLimit:   100,
		},
		logger,
		metrics,
	)

	report := p.Run(context.Background())
	fmt.Printf("Wrote %s: %d updated, %d skipped, %d failed\n",
		*out, len(report.Succeeded), len(report.Skipped), len(report.Failed))
	for _, c := range report.Failed {
		fmt.Printf("  failed: %s\n", c)
	}
	return nil
}

// seedStations copies the curated station list into the output directory
// unless one already exists there.
func seedStations(fixtures string, store *filestore.Store) error {
	if _, err := store.LoadStations(); err == nil || !errors.Is(err, domain.ErrNoStationFile) {
		return err
	}
	data, err := os.ReadFile(filepath.Join(fixtures, filestore.StationFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read station seed: %w", err)
	}
	return store.SaveRaw(filestore.StationFileName, data)
}

// replayHandler maps upstream request shapes onto fixture files.
func replayHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rel string
		switch p := r.URL.Path; {
		case p == "/search":
			rel = path.Join("search", r.URL.Query().Get("collections")+".json")
		case p == "/coops":
			rel = path.Join("coops", r.URL.Query().Get("station")+".json")
		case strings.HasPrefix(p, "/erddap/tabledap/"):
			rel = path.Join("erddap", strings.TrimPrefix(p, "/erddap/tabledap/"))
		default:
			rel = strings.TrimPrefix(p, "/")
		}
		rel = path.Clean(rel)
		if strings.HasPrefix(rel, "..") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, filepath.FromSlash(rel)))
	})
}
