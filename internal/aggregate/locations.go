package aggregate

import (
	"math"
	"sort"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// DetailRowCap bounds the measurement listing exposed per location group.
// The cap keeps marker popup payloads small; groups over the cap report the
// exact remainder so the caller can render a "refine your filters" note.
const DetailRowCap = 80

// LocationGroup is one map marker: all measurements sharing an exact
// (location, latitude, longitude) key, with below-LOQ statistics and a
// deterministically ordered, capped detail listing. Two rows of the same
// named location with slightly different recorded coordinates form
// separate groups; the source data's coordinate precision is unspecified,
// so no clustering tolerance is applied.
type LocationGroup struct {
	Location    string
	Lat         float64
	Lon         float64
	N           int
	BelowLOQ    int
	BelowLOQPct float64
	Rows        []domain.Measurement
	Remainder   int
}

type groupKey struct {
	location string
	lat, lon float64
}

// GroupByLocation partitions the rows that carry coordinates into location
// groups. Rows without coordinates are skipped here but remain in every
// tabular and statistical view. Missing location names group under the
// shared unknown label. Groups come back ordered by (location, lat, lon);
// measurements within a group are ordered by substance priority rank
// ascending, then year descending, then value descending, with missing
// year/value sorting last and ties keeping their input order.
func GroupByLocation(rows []domain.Measurement, ranking domain.Ranking) []LocationGroup {
	buckets := make(map[groupKey][]domain.Measurement)
	for _, m := range rows {
		if !m.HasCoordinates() {
			continue
		}
		key := groupKey{location: m.DisplayLocation(), lat: *m.Lat, lon: *m.Lon}
		buckets[key] = append(buckets[key], m)
	}

	groups := make([]LocationGroup, 0, len(buckets))
	for key, members := range buckets {
		sortGroupRows(members, ranking)

		n := len(members)
		nLOQ := countBelowLOQ(members)

		g := LocationGroup{
			Location:    key.location,
			Lat:         key.lat,
			Lon:         key.lon,
			N:           n,
			BelowLOQ:    nLOQ,
			BelowLOQPct: roundOne(percentage(nLOQ, n)),
		}
		if n > DetailRowCap {
			g.Rows = members[:DetailRowCap]
			g.Remainder = n - DetailRowCap
		} else {
			g.Rows = members
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Location != groups[j].Location {
			return groups[i].Location < groups[j].Location
		}
		if groups[i].Lat != groups[j].Lat {
			return groups[i].Lat < groups[j].Lat
		}
		return groups[i].Lon < groups[j].Lon
	})
	return groups
}

// sortGroupRows orders measurements for display inside a marker popup.
// Missing years and values substitute -1 so they sort after real readings
// under the descending keys.
func sortGroupRows(rows []domain.Measurement, ranking domain.Ranking) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := ranking.Rank(rows[i].Substance), ranking.Rank(rows[j].Substance)
		if ri != rj {
			return ri < rj
		}
		yi, yj := sortYear(rows[i].Year), sortYear(rows[j].Year)
		if yi != yj {
			return yi > yj
		}
		vi, vj := sortValue(rows[i].Value), sortValue(rows[j].Value)
		return vi > vj
	})
}

func sortYear(y *int) float64 {
	if y == nil {
		return -1
	}
	return float64(*y)
}

func sortValue(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}

func countBelowLOQ(rows []domain.Measurement) int {
	n := 0
	for _, m := range rows {
		if m.BelowLOQ != nil && *m.BelowLOQ {
			n++
		}
	}
	return n
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// Map centering defaults cover the Zeeland region when no row falls inside
// the regional bounding box.
const (
	DefaultCenterLat = 51.45
	DefaultCenterLon = 3.80
	DefaultZoom      = 9
)

// MapCenter suggests a map center: the mean coordinate of rows inside the
// regional box (lat 50–54, lon 3–8), or the Zeeland default when none
// qualify. Rows without coordinates are ignored.
func MapCenter(rows []domain.Measurement) (float64, float64) {
	var sumLat, sumLon float64
	n := 0
	for _, m := range rows {
		if !m.HasCoordinates() {
			continue
		}
		if *m.Lat < 50 || *m.Lat > 54 || *m.Lon < 3 || *m.Lon > 8 {
			continue
		}
		sumLat += *m.Lat
		sumLon += *m.Lon
		n++
	}
	if n == 0 {
		return DefaultCenterLat, DefaultCenterLon
	}
	return sumLat / float64(n), sumLon / float64(n)
}
