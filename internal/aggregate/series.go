package aggregate

import (
	"sort"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// MinTrendYears is the minimum number of distinct measurement years a
// combination needs before a time series is worth plotting; a single year
// cannot show a trend.
const MinTrendYears = 2

// Combo identifies one plottable time series: a substance measured at one
// location in one medium by one monitoring programme. YearCount is the
// number of distinct non-missing years observed for it.
type Combo struct {
	Substance string
	Location  string
	Medium    string
	Source    string
	YearCount int
}

// TrendSelection is a partial or complete combo choice; empty fields are
// unselected. Selection is tiered: substance, then location, then medium,
// then source.
type TrendSelection struct {
	Substance string
	Location  string
	Medium    string
	Source    string
}

// Matches reports whether a measurement belongs to the selected combo.
// Only set fields constrain.
func (s TrendSelection) Matches(m domain.Measurement) bool {
	if s.Substance != "" && m.Substance != s.Substance {
		return false
	}
	if s.Location != "" && m.Location != s.Location {
		return false
	}
	if s.Medium != "" && m.Medium != s.Medium {
		return false
	}
	if s.Source != "" && m.Source != s.Source {
		return false
	}
	return true
}

// Complete reports whether every tier is selected.
func (s TrendSelection) Complete() bool {
	return s.Substance != "" && s.Location != "" && s.Medium != "" && s.Source != ""
}

type comboKey struct {
	substance, location, medium, source string
}

// EligibleCombos computes which combinations in the subset have enough
// distinct years for a trend view. Rows with a missing year contribute
// nothing to their combination's year count. An empty result over a
// non-empty subset means "no combination qualifies", which callers must
// surface distinctly from an empty subset. Combos come back in a stable
// lexicographic order.
func EligibleCombos(rows []domain.Measurement) []Combo {
	years := make(map[comboKey]map[int]bool)
	for _, m := range rows {
		if m.Year == nil {
			continue
		}
		key := comboKey{m.Substance, m.Location, m.Medium, m.Source}
		if years[key] == nil {
			years[key] = make(map[int]bool)
		}
		years[key][*m.Year] = true
	}

	combos := make([]Combo, 0, len(years))
	for key, distinct := range years {
		if len(distinct) < MinTrendYears {
			continue
		}
		combos = append(combos, Combo{
			Substance: key.substance,
			Location:  key.location,
			Medium:    key.medium,
			Source:    key.source,
			YearCount: len(distinct),
		})
	}

	sort.Slice(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.Substance != b.Substance {
			return a.Substance < b.Substance
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Medium != b.Medium {
			return a.Medium < b.Medium
		}
		return a.Source < b.Source
	})
	return combos
}

// TrendOptions holds the remaining choices per selector tier given the
// tiers already chosen. A tier is populated only once all earlier tiers are
// selected; later tiers stay nil until then. Valid reports whether the
// selection so far (including a complete one) still matches at least one
// eligible combo.
type TrendOptions struct {
	Substances       []string
	DefaultSubstance string
	Locations        []string
	Media            []string
	Sources          []string
	Valid            bool
}

// ComboOptions narrows selector options progressively from the eligible
// combo set, independent of any widget state: substance options always
// span all combos (top substances first), location options require a
// substance, medium options a substance and location, source options all
// three.
func ComboOptions(combos []Combo, sel TrendSelection, ranking domain.Ranking) TrendOptions {
	opts := TrendOptions{Valid: matchesAny(combos, sel)}

	substances := make(map[string]bool)
	for _, c := range combos {
		substances[c.Substance] = true
	}
	opts.Substances = ranking.OrderOptions(keys(substances))
	opts.DefaultSubstance = ranking.DefaultChoice(opts.Substances)

	if sel.Substance == "" {
		return opts
	}
	opts.Locations = distinctSorted(combos, func(c Combo) (string, bool) {
		return c.Location, c.Substance == sel.Substance
	})

	if sel.Location == "" {
		return opts
	}
	opts.Media = distinctSorted(combos, func(c Combo) (string, bool) {
		return c.Medium, c.Substance == sel.Substance && c.Location == sel.Location
	})

	if sel.Medium == "" {
		return opts
	}
	opts.Sources = distinctSorted(combos, func(c Combo) (string, bool) {
		return c.Source, c.Substance == sel.Substance && c.Location == sel.Location && c.Medium == sel.Medium
	})

	return opts
}

func matchesAny(combos []Combo, sel TrendSelection) bool {
	for _, c := range combos {
		if sel.Substance != "" && c.Substance != sel.Substance {
			continue
		}
		if sel.Location != "" && c.Location != sel.Location {
			continue
		}
		if sel.Medium != "" && c.Medium != sel.Medium {
			continue
		}
		if sel.Source != "" && c.Source != sel.Source {
			continue
		}
		return true
	}
	return false
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func distinctSorted(combos []Combo, pick func(Combo) (string, bool)) []string {
	set := make(map[string]bool)
	for _, c := range combos {
		if v, ok := pick(c); ok {
			set[v] = true
		}
	}
	out := keys(set)
	sort.Strings(out)
	return out
}

// YearMedian is one time-series point: the median display-normalized value
// across all measurements of a year.
type YearMedian struct {
	Year   int     `json:"year"`
	Median float64 `json:"median"`
}

// YearSeries computes the per-year median series for one fully specified
// combination. Rows with a missing year are skipped; years come back
// ascending with gap years simply absent. No imputation is performed.
func YearSeries(rows []domain.Measurement, sel TrendSelection, units domain.UnitTable) []YearMedian {
	byYear := make(map[int][]float64)
	for _, m := range rows {
		if !sel.Matches(m) || m.Year == nil || m.Value == nil {
			continue
		}
		byYear[*m.Year] = append(byYear[*m.Year], units.Normalize(*m.Value, m.Unit))
	}

	series := make([]YearMedian, 0, len(byYear))
	for year, values := range byYear {
		series = append(series, YearMedian{Year: year, Median: median(values)})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}
