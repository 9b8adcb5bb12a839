package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/pfas-dashboard-service/internal/adapter/http"
	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/couchcryptid/pfas-dashboard-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleRows is a small dataset exercising every view: a trend-eligible
// PFOS series, a below-LOQ row, a microgram row, and a row without
// coordinates.
func sampleRows() []domain.Measurement {
	return []domain.Measurement{
		{
			Substance: "PFOS", Location: "Westerschelde Terneuzen",
			Source: "RWS", Medium: "Oppervlaktewater", SampleType: "Water",
			Unit: "ng/l", Year: iptr(2019), Value: fptr(12),
			Lat: fptr(51.3369), Lon: fptr(3.8271), BelowLOQ: bptr(false),
		},
		{
			Substance: "PFOS", Location: "Westerschelde Terneuzen",
			Source: "RWS", Medium: "Oppervlaktewater", SampleType: "Water",
			Unit: "ng/l", Year: iptr(2020), Value: fptr(10),
			Lat: fptr(51.3369), Lon: fptr(3.8271), BelowLOQ: bptr(false),
		},
		{
			Substance: "PFOS", Location: "Westerschelde Terneuzen",
			Source: "RWS", Medium: "Oppervlaktewater", SampleType: "Water",
			Unit: "ng/l", Year: iptr(2021), Value: fptr(9.1),
			Lat: fptr(51.3369), Lon: fptr(3.8271), BelowLOQ: bptr(false),
		},
		{
			Substance: "PFOA", Location: "Westerschelde Terneuzen",
			Source: "RWS", Medium: "Oppervlaktewater", SampleType: "Water",
			Unit: "ng/l", Year: iptr(2021), Value: fptr(4.2),
			Lat: fptr(51.3369), Lon: fptr(3.8271), BelowLOQ: bptr(true),
		},
		{
			Substance: "PFOS", Location: "RWZI Terneuzen",
			Source: "RWZI", Medium: "Effluent", SampleType: "Water",
			Unit: "µg/l", Year: iptr(2021), Value: fptr(0.011),
			Lat: fptr(51.3106), Lon: fptr(3.8470), BelowLOQ: bptr(false),
		},
		{
			Substance: "GenX", Location: "Paulinapolder",
			Source: "VWS", Medium: "Zwemwater", SampleType: "Water",
			Unit: "ng/l", Year: iptr(2022), Value: fptr(3.5),
		},
	}
}

// newTestServer builds a server over a store seeded with rows. Passing nil
// leaves the store unloaded.
func newTestServer(rows []domain.Measurement) *httpadapter.Server {
	store := dataset.NewStore("unused.csv", testLogger())
	if len(rows) > 0 {
		store.Append(rows)
	}
	return httpadapter.NewServer(
		":0",
		store,
		domain.DefaultUnitTable(),
		domain.NewRanking(domain.DefaultPriority()),
		observability.NewMetricsForTesting(),
		testLogger(),
	)
}

func get(t *testing.T, srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(sampleRows()), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenLoaded(t *testing.T) {
	rec := get(t, newTestServer(sampleRows()), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503BeforeFirstLoad(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "dataset not loaded", body["error"])
}

func TestAPIReturns503BeforeFirstLoad(t *testing.T) {
	srv := newTestServer(nil)

	for _, target := range []string{
		"/api/v1/summary",
		"/api/v1/options",
		"/api/v1/measurements",
		"/api/v1/map",
		"/api/v1/charts/locations",
		"/api/v1/charts/timeseries",
		"/api/v1/timeseries/options",
		"/api/v1/export",
	} {
		rec := get(t, srv, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)

		var body map[string]string
		decode(t, rec, &body)
		assert.Equal(t, "dataset not loaded", body["error"], target)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(sampleRows()), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
