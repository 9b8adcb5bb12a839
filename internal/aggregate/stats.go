package aggregate

import (
	"sort"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// DefaultMaxChartLocations caps the bar chart when the caller does not
// specify a bound.
const DefaultMaxChartLocations = 25

// LocationMedian is one bar of the per-location chart.
type LocationMedian struct {
	Location string  `json:"location"`
	Median   float64 `json:"median"`
}

// LocationMedians ranks locations by the median of their display-normalized
// values, descending, keeping at most maxLocations. Rows with a missing or
// empty location are excluded. Equal medians order by location name so the
// chart is deterministic. maxLocations <= 0 falls back to the default cap.
func LocationMedians(rows []domain.Measurement, units domain.UnitTable, maxLocations int) []LocationMedian {
	if maxLocations <= 0 {
		maxLocations = DefaultMaxChartLocations
	}

	byLocation := make(map[string][]float64)
	for _, m := range rows {
		if m.Location == "" || m.Value == nil {
			continue
		}
		byLocation[m.Location] = append(byLocation[m.Location], units.Normalize(*m.Value, m.Unit))
	}

	medians := make([]LocationMedian, 0, len(byLocation))
	for location, values := range byLocation {
		medians = append(medians, LocationMedian{Location: location, Median: median(values)})
	}
	sort.Slice(medians, func(i, j int) bool {
		if medians[i].Median != medians[j].Median {
			return medians[i].Median > medians[j].Median
		}
		return medians[i].Location < medians[j].Location
	})

	if len(medians) > maxLocations {
		medians = medians[:maxLocations]
	}
	return medians
}

// median returns the interpolating median: the middle value for odd counts,
// the mean of the two middle values for even counts. The input slice is
// sorted in place. Callers guarantee at least one value.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// Units lists the distinct non-empty unit labels present in a subset,
// sorted. More than one label means the selection mixes units and callers
// must surface a warning; computation still proceeds on the best-effort
// normalization.
func Units(rows []domain.Measurement) []string {
	set := make(map[string]bool)
	for _, m := range rows {
		if m.Unit != "" {
			set[m.Unit] = true
		}
	}
	out := keys(set)
	sort.Strings(out)
	return out
}

// Substances lists the distinct non-empty substance codes in a subset,
// sorted. The bar chart requires exactly one.
func Substances(rows []domain.Measurement) []string {
	set := make(map[string]bool)
	for _, m := range rows {
		if m.Substance != "" {
			set[m.Substance] = true
		}
	}
	out := keys(set)
	sort.Strings(out)
	return out
}

// Summary holds the subset statistics shown in the dashboard sidebar.
type Summary struct {
	Rows              int      `json:"rows"`
	DistinctLocations int      `json:"distinct_locations"`
	RowsWithCoords    int      `json:"rows_with_coordinates"`
	Units             []string `json:"units"`
	MixedUnits        bool     `json:"mixed_units"`
	BelowLOQ          int      `json:"below_loq"`
}

// Summarize computes the sidebar statistics for a filtered subset.
func Summarize(rows []domain.Measurement) Summary {
	locations := make(map[string]bool)
	withCoords := 0
	for _, m := range rows {
		if m.Location != "" {
			locations[m.Location] = true
		}
		if m.HasCoordinates() {
			withCoords++
		}
	}

	units := Units(rows)
	return Summary{
		Rows:              len(rows),
		DistinctLocations: len(locations),
		RowsWithCoords:    withCoords,
		Units:             units,
		MixedUnits:        len(units) > 1,
		BelowLOQ:          countBelowLOQ(rows),
	}
}
