package dataset

import (
	"sort"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// Filter is the multi-select dashboard selection. Empty slices leave a
// dimension unconstrained; non-empty slices keep rows matching any listed
// value. Rows with a missing year never match a constrained year dimension.
type Filter struct {
	Sources     []string
	Media       []string
	Substances  []string
	Years       []int
	SampleTypes []string
	Locations   []string
}

// Empty reports whether no dimension is constrained.
func (f Filter) Empty() bool {
	return len(f.Sources) == 0 && len(f.Media) == 0 && len(f.Substances) == 0 &&
		len(f.Years) == 0 && len(f.SampleTypes) == 0 && len(f.Locations) == 0
}

// Matches reports whether a row passes every constrained dimension.
func (f Filter) Matches(m domain.Measurement) bool {
	return matchLabel(f.Sources, m.Source) &&
		matchLabel(f.Media, m.Medium) &&
		matchLabel(f.Substances, m.Substance) &&
		matchYear(f.Years, m.Year) &&
		matchLabel(f.SampleTypes, m.SampleType) &&
		matchLabel(f.Locations, m.Location)
}

func matchLabel(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

func matchYear(selected []int, year *int) bool {
	if len(selected) == 0 {
		return true
	}
	if year == nil {
		return false
	}
	for _, y := range selected {
		if y == *year {
			return true
		}
	}
	return false
}

// Apply returns the rows passing every selection of f.
func Apply(rows []domain.Measurement, f Filter) []domain.Measurement {
	if f.Empty() {
		return rows
	}
	out := make([]domain.Measurement, 0, len(rows))
	for _, m := range rows {
		if f.Matches(m) {
			out = append(out, m)
		}
	}
	return out
}

// Subset returns the view subset: every selection applied, then rows
// without a measured value dropped. The summary, table, map, charts, and
// export all consume this subset.
func Subset(rows []domain.Measurement, f Filter) []domain.Measurement {
	filtered := Apply(rows, f)
	out := make([]domain.Measurement, 0, len(filtered))
	for _, m := range filtered {
		if m.Value != nil {
			out = append(out, m)
		}
	}
	return out
}

// Options lists the remaining choices per sidebar tier.
type Options struct {
	Sources     []string `json:"sources"`
	Media       []string `json:"media"`
	Substances  []string `json:"substances"`
	Years       []int    `json:"years"`
	SampleTypes []string `json:"sample_types"`
	Locations   []string `json:"locations"`
}

// ComputeOptions derives the sidebar options. Tiers narrow progressively in
// sidebar order (source, medium, substance, year, sample type, location):
// each tier's options come from the rows remaining after the selections of
// the earlier tiers only, so a tier's own selection never erases its
// alternatives. Options are computed before the missing-value drop, empty
// labels are excluded, substance options are priority-ordered, years are
// ascending.
func ComputeOptions(rows []domain.Measurement, f Filter, ranking domain.Ranking) Options {
	var opts Options
	working := rows

	opts.Sources = distinctLabels(working, func(m domain.Measurement) string { return m.Source })
	working = Apply(working, Filter{Sources: f.Sources})

	opts.Media = distinctLabels(working, func(m domain.Measurement) string { return m.Medium })
	working = Apply(working, Filter{Media: f.Media})

	opts.Substances = ranking.OrderOptions(distinctLabels(working, func(m domain.Measurement) string { return m.Substance }))
	working = Apply(working, Filter{Substances: f.Substances})

	opts.Years = distinctYears(working)
	working = Apply(working, Filter{Years: f.Years})

	opts.SampleTypes = distinctLabels(working, func(m domain.Measurement) string { return m.SampleType })
	working = Apply(working, Filter{SampleTypes: f.SampleTypes})

	opts.Locations = distinctLabels(working, func(m domain.Measurement) string { return m.Location })

	return opts
}

func distinctLabels(rows []domain.Measurement, label func(domain.Measurement) string) []string {
	set := make(map[string]bool)
	for _, m := range rows {
		if l := label(m); l != "" {
			set[l] = true
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func distinctYears(rows []domain.Measurement) []int {
	set := make(map[int]bool)
	for _, m := range rows {
		if m.Year != nil {
			set[*m.Year] = true
		}
	}
	out := make([]int, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
