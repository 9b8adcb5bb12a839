package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pfas-dashboard-service/internal/aggregate"
	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// Informational states returned on dashboard routes. These are HTTP 200:
// an empty or over-broad selection is a normal dashboard situation, not a
// request error.
const (
	stateOK                 = "ok"
	stateEmptySelection     = "empty_selection"
	stateNoCoordinates      = "no_coordinates"
	stateMultipleSubstances = "multiple_substances"
	stateInsufficientYears  = "insufficient_history"
	stateNoEligibleCombos   = "no_eligible_combos"

	// Metric-only states for rejected or failed requests.
	stateInvalid = "invalid"
	stateUnready = "unready"
	stateError   = "error"
)

// filterFromQuery builds the shared multi-select filter from repeatable
// query parameters.
func filterFromQuery(q url.Values) (dataset.Filter, error) {
	f := dataset.Filter{
		Sources:     q["source"],
		Media:       q["medium"],
		Substances:  q["substance"],
		SampleTypes: q["sampletype"],
		Locations:   q["location"],
	}
	for _, raw := range q["year"] {
		year, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return f, fmt.Errorf("invalid year %q", raw)
		}
		f.Years = append(f.Years, year)
	}
	return f, nil
}

// intParam reads an integer query parameter, falling back to def when
// absent.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

// snapshotInfo identifies the dataset version a response was computed from.
type snapshotInfo struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Revision    int       `json:"revision"`
	Source      string    `json:"source"`
	LoadedAt    time.Time `json:"loaded_at"`
	Rows        int       `json:"rows"`
}

func describeSnapshot(snap *dataset.Snapshot) snapshotInfo {
	return snapshotInfo{
		ID:          snap.ID,
		Fingerprint: snap.Fingerprint,
		Revision:    snap.Revision,
		Source:      snap.Source,
		LoadedAt:    snap.LoadedAt,
		Rows:        len(snap.Measurements),
	}
}

// --- GET /api/v1/summary ---

type summaryResponse struct {
	Summary  aggregate.Summary `json:"summary"`
	Snapshot snapshotInfo      `json:"snapshot"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("summary", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := dataset.Subset(snap.Measurements, f)
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:  aggregate.Summarize(subset),
		Snapshot: describeSnapshot(snap),
	})
}

// --- GET /api/v1/options ---

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("options", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dataset.ComputeOptions(snap.Measurements, f, s.ranking))
}

// --- GET /api/v1/measurements ---

const (
	defaultPageLimit = 500
	maxPageLimit     = 5000
)

type pageParams struct {
	Limit  int `validate:"min=1,max=5000"`
	Offset int `validate:"min=0"`
}

// measurementRow is one table row: the measurement plus its value on the
// display scale. The raw value and unit stay untouched next to it.
type measurementRow struct {
	domain.Measurement
	DisplayValue *float64 `json:"display_value,omitempty"`
}

type measurementsResponse struct {
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Rows   []measurementRow `json:"rows"`
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("measurements", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	q := r.URL.Query()
	f, err := filterFromQuery(q)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := intParam(q, "limit", defaultPageLimit)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset", 0)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := pageParams{Limit: limit, Offset: offset}
	if err := validate.Struct(params); err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := dataset.Subset(snap.Measurements, f)
	total := len(subset)

	lo := params.Offset
	if lo > total {
		lo = total
	}
	hi := lo + params.Limit
	if hi > total {
		hi = total
	}

	rows := make([]measurementRow, 0, hi-lo)
	for _, m := range subset[lo:hi] {
		rows = append(rows, measurementRow{
			Measurement:  m,
			DisplayValue: s.units.DisplayValue(m),
		})
	}

	writeJSON(w, http.StatusOK, measurementsResponse{
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
		Rows:   rows,
	})
}

// --- GET /api/v1/map ---

type basemap struct {
	Name        string `json:"name"`
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// The two basemaps the dashboard offers. The Esri attribution text is the
// one required by their tile service terms.
var basemaps = []basemap{
	{
		Name:        "Normaal",
		URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
	},
	{
		Name:        "Satelliet",
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri — Source: Esri, Maxar, Earthstar Geographics",
	},
}

type mapMarker struct {
	Location    string  `json:"location"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	N           int     `json:"n"`
	BelowLOQ    int     `json:"below_loq"`
	BelowLOQPct float64 `json:"below_loq_pct"`
	Tooltip     string  `json:"tooltip"`
	PopupHTML   string  `json:"popup_html"`
}

type mapResponse struct {
	State          string      `json:"state"`
	Center         coordinates `json:"center"`
	Zoom           int         `json:"zoom"`
	Rows           int         `json:"rows"`
	RowsWithCoords int         `json:"rows_with_coordinates"`
	Basemaps       []basemap   `json:"basemaps"`
	Markers        []mapMarker `json:"markers"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("map", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := dataset.Subset(snap.Measurements, f)
	groups := aggregate.GroupByLocation(subset, s.ranking)
	centerLat, centerLon := aggregate.MapCenter(subset)

	resp := mapResponse{
		State:    stateOK,
		Center:   coordinates{Lat: centerLat, Lon: centerLon},
		Zoom:     aggregate.DefaultZoom,
		Rows:     len(subset),
		Basemaps: basemaps,
		Markers:  make([]mapMarker, 0, len(groups)),
	}

	for _, g := range groups {
		resp.RowsWithCoords += g.N
		html, err := renderPopup(g)
		if err != nil {
			state = stateError
			s.logger.Error("rendering marker popup failed", "location", g.Location, "error", err)
			writeError(w, http.StatusInternalServerError, "rendering map markers failed")
			return
		}
		resp.Markers = append(resp.Markers, mapMarker{
			Location:    g.Location,
			Lat:         g.Lat,
			Lon:         g.Lon,
			N:           g.N,
			BelowLOQ:    g.BelowLOQ,
			BelowLOQPct: g.BelowLOQPct,
			Tooltip:     fmt.Sprintf("%s (%d metingen)", g.Location, g.N),
			PopupHTML:   html,
		})
	}

	switch {
	case len(subset) == 0:
		resp.State = stateEmptySelection
	case len(groups) == 0:
		resp.State = stateNoCoordinates
	}
	state = resp.State

	writeJSON(w, http.StatusOK, resp)
}

// --- GET /api/v1/charts/locations ---

type locationsChartParams struct {
	MaxLocations int `validate:"min=1,max=200"`
}

type locationsChartResponse struct {
	State       string                     `json:"state"`
	Substance   string                     `json:"substance,omitempty"`
	Substances  []string                   `json:"substances,omitempty"`
	DisplayUnit string                     `json:"display_unit"`
	Units       []string                   `json:"units"`
	MixedUnits  bool                       `json:"mixed_units"`
	Locations   []aggregate.LocationMedian `json:"locations"`
}

func (s *Server) handleLocationsChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("chart_locations", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	q := r.URL.Query()
	f, err := filterFromQuery(q)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxLocations, err := intParam(q, "max_locations", aggregate.DefaultMaxChartLocations)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := locationsChartParams{MaxLocations: maxLocations}
	if err := validate.Struct(params); err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := dataset.Subset(snap.Measurements, f)
	units := aggregate.Units(subset)
	resp := locationsChartResponse{
		State:       stateOK,
		DisplayUnit: domain.DisplayUnit,
		Units:       units,
		MixedUnits:  len(units) > 1,
		Locations:   []aggregate.LocationMedian{},
	}

	substances := aggregate.Substances(subset)
	switch {
	case len(subset) == 0:
		resp.State = stateEmptySelection
	case len(substances) != 1:
		// The bar chart compares locations for one substance; medians
		// across substances would be meaningless.
		resp.State = stateMultipleSubstances
		resp.Substances = substances
	default:
		resp.Substance = substances[0]
		resp.Locations = aggregate.LocationMedians(subset, s.units, params.MaxLocations)
	}
	state = resp.State

	writeJSON(w, http.StatusOK, resp)
}

// --- GET /api/v1/charts/timeseries ---

type trendParams struct {
	Substance string `validate:"required"`
	Location  string `validate:"required"`
	Medium    string `validate:"required"`
	Source    string `validate:"required"`
}

type timeseriesResponse struct {
	State       string                 `json:"state"`
	Substance   string                 `json:"substance"`
	Location    string                 `json:"location"`
	Medium      string                 `json:"medium"`
	Source      string                 `json:"source"`
	Years       []int                  `json:"years"`
	Series      []aggregate.YearMedian `json:"series"`
	DisplayUnit string                 `json:"display_unit"`
	Units       []string               `json:"units"`
	MixedUnits  bool                   `json:"mixed_units"`
}

func (s *Server) handleTimeseriesChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("chart_timeseries", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	q := r.URL.Query()
	f, err := filterFromQuery(q)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := trendParams{
		Substance: q.Get("trend_substance"),
		Location:  q.Get("trend_location"),
		Medium:    q.Get("trend_medium"),
		Source:    q.Get("trend_source"),
	}
	if err := validate.Struct(params); err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, "trend_substance, trend_location, trend_medium and trend_source are required")
		return
	}

	sel := aggregate.TrendSelection{
		Substance: params.Substance,
		Location:  params.Location,
		Medium:    params.Medium,
		Source:    params.Source,
	}

	subset := dataset.Subset(snap.Measurements, f)
	series := aggregate.YearSeries(subset, sel, s.units)

	comboRows := make([]domain.Measurement, 0)
	for _, m := range subset {
		if sel.Matches(m) {
			comboRows = append(comboRows, m)
		}
	}
	units := aggregate.Units(comboRows)

	resp := timeseriesResponse{
		State:       stateOK,
		Substance:   sel.Substance,
		Location:    sel.Location,
		Medium:      sel.Medium,
		Source:      sel.Source,
		Years:       make([]int, 0, len(series)),
		Series:      series,
		DisplayUnit: domain.DisplayUnit,
		Units:       units,
		MixedUnits:  len(units) > 1,
	}
	for _, p := range series {
		resp.Years = append(resp.Years, p.Year)
	}

	switch {
	case len(comboRows) == 0:
		resp.State = stateEmptySelection
	case len(series) < aggregate.MinTrendYears:
		resp.State = stateInsufficientYears
	}
	state = resp.State

	writeJSON(w, http.StatusOK, resp)
}

// --- GET /api/v1/timeseries/options ---

type timeseriesOptionsResponse struct {
	State            string   `json:"state"`
	Combos           int      `json:"combos"`
	Substances       []string `json:"substances"`
	DefaultSubstance string   `json:"default_substance,omitempty"`
	Locations        []string `json:"locations,omitempty"`
	Media            []string `json:"media,omitempty"`
	Sources          []string `json:"sources,omitempty"`
	Valid            bool     `json:"valid"`
}

func (s *Server) handleTimeseriesOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("timeseries_options", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	q := r.URL.Query()
	f, err := filterFromQuery(q)
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel := aggregate.TrendSelection{
		Substance: q.Get("trend_substance"),
		Location:  q.Get("trend_location"),
		Medium:    q.Get("trend_medium"),
	}

	subset := dataset.Subset(snap.Measurements, f)
	combos := aggregate.EligibleCombos(subset)
	opts := aggregate.ComboOptions(combos, sel, s.ranking)

	resp := timeseriesOptionsResponse{
		State:            stateOK,
		Combos:           len(combos),
		Substances:       opts.Substances,
		DefaultSubstance: opts.DefaultSubstance,
		Locations:        opts.Locations,
		Media:            opts.Media,
		Sources:          opts.Sources,
		Valid:            opts.Valid,
	}

	switch {
	case len(subset) == 0:
		resp.State = stateEmptySelection
	case len(combos) == 0:
		// Rows exist but none span enough years; callers must tell this
		// apart from an empty subset.
		resp.State = stateNoEligibleCombos
	}
	state = resp.State

	writeJSON(w, http.StatusOK, resp)
}

// --- GET /api/v1/export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := stateOK
	defer func() { s.observeView("export", state, start) }()

	snap := s.snapshot(w)
	if snap == nil {
		state = stateUnready
		return
	}
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		state = stateInvalid
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	subset := dataset.Subset(snap.Measurements, f)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pfas_subset.csv"`)
	if err := dataset.WriteCSV(w, subset); err != nil {
		// Headers are out; all we can do is log.
		s.logger.Error("writing csv export failed", "error", err)
	}
}
