package pipeline_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// upstream fakes every source the updater talks to on one test server:
//
//	/stac/search         discovery catalogue, keyed by the collections param
//	/ndbc/<id>.<ext>     NDBC realtime2 feeds
//	/coops               CO-OPS datagetter, keyed by the station param
//	/erddap/tabledap/... ERDDAP tables, keyed by path
//	/currents            CoastWatch grid
type upstream struct {
	srv *httptest.Server

	mu          sync.Mutex
	collections map[string]string
	feeds       map[string]string
	waterLevels map[string]string
	tables      map[string]string
	currents    string
	queries     map[string]string // collection -> raw query

	// onRequest, when set, runs before every response.
	onRequest func(r *http.Request)
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{
		collections: map[string]string{},
		feeds:       map[string]string{},
		waterLevels: map[string]string{},
		tables:      map[string]string{},
		queries:     map[string]string{},
	}
	u.srv = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) URL() string { return u.srv.URL }

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.onRequest != nil {
		u.onRequest(r)
	}

	path := r.URL.Path
	switch {
	case path == "/stac/search":
		c := r.URL.Query().Get("collections")
		u.queries[c] = r.URL.RawQuery
		body, ok := u.collections[c]
		if !ok {
			body = `{"type":"FeatureCollection","features":[]}`
		}
		writeBody(w, body)
	case strings.HasPrefix(path, "/ndbc/"):
		u.lookup(w, u.feeds, strings.TrimPrefix(path, "/ndbc/"))
	case path == "/coops":
		u.lookup(w, u.waterLevels, r.URL.Query().Get("station"))
	case strings.HasPrefix(path, "/erddap/tabledap/"):
		u.lookup(w, u.tables, strings.TrimPrefix(path, "/erddap/tabledap/"))
	case path == "/currents":
		if u.currents == "" {
			http.NotFound(w, r)
			return
		}
		writeBody(w, u.currents)
	default:
		http.NotFound(w, r)
	}
}

func (u *upstream) lookup(w http.ResponseWriter, m map[string]string, key string) {
	body, ok := m[key]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeBody(w, body)
}

func (u *upstream) setOnRequest(fn func(r *http.Request)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onRequest = fn
}

func (u *upstream) query(collection string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.queries[collection]
}

func writeBody(w http.ResponseWriter, body string) {
	_, _ = w.Write([]byte(body))
}

// populate installs a realistic response for every source.
func (u *upstream) populate() {
	base := u.srv.URL

	u.collections["IOOS_SENSORS"] = `{"features":[
		{"id":"IOOS_TABS_B","geometry":{"type":"Point","coordinates":[-94.8989,28.9823]},
		 "properties":{"title":"TABS Buoy B","aquaview:variables":["a","b","c","d","e","f","g","h","i","j","k","l"],
		 "aquaview:source_url":"https://tabs.example/b?x=1&y=2","aquaview:organization":"GCOOS"}},
		{"id":"IOOS_MP","geometry":{"type":"MultiPoint","coordinates":[[-88.5,29.1],[-88.6,29.2]]},
		 "properties":{"aquaview:variables":[]}},
		{"id":"IOOS_POLY","geometry":{"type":"Polygon","coordinates":[[[-90,25],[-89,25],[-89,26],[-90,25]]]},"properties":{}},
		{"id":"IOOS_NULL","geometry":{"type":"Point","coordinates":null},"properties":{}},
		{"id":"IOOS_NOGEOM","geometry":null,"properties":{}}
	]}`

	u.collections["NDBC"] = `{"features":[
		{"id":"NDBC_42001","geometry":{"type":"Point","coordinates":[-90.1234567,25.7654321]},
		 "properties":{"title":"Buoy 42001","aquaview:variables":["wspd","wdir","wvht","dpd","pres","atmp","wtmp","dewp","vis"]}},
		{"id":"NDBC_42002","geometry":{"type":"Point","coordinates":[-93.646,26.055]},
		 "properties":{"title":"Buoy 42002"}},
		{"id":"NDBC_TRACK","geometry":{"type":"LineString","coordinates":[[-90,25],[-91,26]]},"properties":{}}
	]}`
	u.feeds["42001.txt"] = metFeed

	u.collections["COOPS"] = `{"features":[
		{"id":"COOPS_8761724","geometry":{"type":"Point","coordinates":[-89.957,29.263]},
		 "properties":{"title":"Grand Isle, LA","aquaview:source_url":"https://tidesandcurrents.noaa.gov/stationhome.html?id=8761724"}},
		{"id":"COOPS_8764227","geometry":{"type":"Point","coordinates":[-91.338,29.45]},
		 "properties":{"title":"LAWMA, Amerada Pass, LA"}}
	]}`
	u.waterLevels["8761724"] = `{"data":[{"t":"2024-04-26 14:54","v":"0.398"},{"t":"2024-04-26 15:00","v":"0.412"}]}`

	u.collections["IOOS"] = `{"features":[
		{"id":"ru29-20240401T0000","geometry":{"type":"Point","coordinates":[-85,25]},
		 "properties":{"title":"RU29 Slocum Glider","start_datetime":"2024-04-01T00:00:00Z","end_datetime":"2024-05-01T00:00:00Z",
		 "aquaview:source_url":"` + base + `/erddap/tabledap/ru29-20240401T0000.html"}},
		{"id":"sg610-20240301","geometry":{"type":"LineString","coordinates":[[-87.11111,26.1],[-87.2,26.2],[-87.3,26.3]]},
		 "properties":{"title":"SG610 mission","datetime":"2024-03-01T00:00:00Z"}},
		{"id":"spray-bbox","bbox":[-86,24,-84,26],
		 "properties":{"title":"Spray deployment"}},
		{"id":"station-alpha","geometry":{"type":"Point","coordinates":[-88,27]},
		 "properties":{"title":"Tide Gauge Alpha"}}
	]}`
	u.tables["ru29-20240401T0000.json"] = `{"table":{"columnNames":["time","latitude","longitude"],"rows":[
		["2024-04-01T00:00:00Z",25.0,-85.0],["2024-04-01T01:00:00Z",null,null],["2024-04-01T02:00:00Z",25.1,-85.1]]}}`

	u.collections["NOAA_GDP"] = `{"features":[
		{"id":"gdp_101","geometry":{"type":"Point","coordinates":[-87,27]},
		 "properties":{"title":"Drifter 101","aquaview:source_url":"` + base + `/erddap/tabledap/gdp_101"}},
		{"id":"gdp_202","geometry":{"type":"Point","coordinates":[-86.55556,26.44444]},
		 "properties":{"title":"Drifter 202"}}
	]}`
	u.tables["gdp_101.json"] = `{"table":{"rows":[[26.5,-87.5,"2024-04-25T00:00:00Z"],[26.6,-87.4,"2024-04-26T00:00:00Z"]]}}`

	u.collections["INCIDENT_NEWS"] = `{"features":[
		{"id":"inc-old","geometry":{"type":"Point","coordinates":[-90,29]},
		 "properties":{"title":"Sheen near Port Fourchon","datetime":"2024-03-01T00:00:00Z","description":"Sheen reported."},
		 "links":[{"rel":"self","href":"https://x/self"},{"rel":"alternate","href":"https://incidentnews.noaa.gov/incident/1"}]},
		{"id":"inc-nodate","geometry":{"type":"Point","coordinates":[-91,28]},"properties":{}},
		{"id":"inc-new","geometry":{"type":"Point","coordinates":[-92,28.5]},
		 "properties":{"title":"Pipeline leak","start_datetime":"2025-01-15T00:00:00Z"}}
	]}`

	u.collections["PMEL"] = `{"features":[
		{"id":"pmel-sd1031","geometry":{"type":"Point","coordinates":[-86.1,25.3]},
		 "properties":{"title":"Saildrone 1031","start_datetime":"2024-08-01T00:00:00Z","aquaview:variables":["temp","sal"]}}
	]}`

	u.feeds["42019.ocean"] = oceanFeed
	u.feeds["BURL1.txt"] = metFeed
	u.currents = "{\n  \"table\": {\"columnNames\": [\"time\", \"u_current\"]}\n}\n"
}

const oceanFeed = `#YY  MM DD hh mm  DEPTH  OTMP   COND   SAL  O2% O2PPM  CLCON  TURB    PH    EH
#yr  mo dy hr mn      m  degC   mS/cm  psu    %   ppm   ug/l   FTU     -    mv
2024 04 26 15 00    1.0 24.61     MM 35.10   MM  6.12     MM    MM  8.05    MM
2024 04 26 14 00    1.0 24.50     MM 35.00   MM  6.00     MM    MM  8.00    MM
`

const metFeed = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 04 26 15 00 130  6.0  7.0   1.2   6.0   4.5 120 1015.2  25.1  26.3    MM   MM   MM    MM
2024 04 26 14 50 120  5.5  6.5   1.1   6.0   4.4 110 1015.0  25.0  26.2    MM   MM   MM    MM
`

const curatedStations = `{
  "updated": "2024-01-01T00:00:00Z",
  "region": "Northern Gulf",
  "stations": [
    {"id": "42019", "name": "Freeport", "lat": 27.907, "current": {"chl": 2.5}},
    {"id": "BURL1", "current": null},
    {"id": "GONE1", "name": "Decommissioned"}
  ]
}
`
