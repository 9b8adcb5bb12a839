package domain

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRank is the sentinel rank for substances absent from the priority
// list. It is strictly greater than any list index, so unlisted substances
// sort after every listed one and fall through to the next sort keys.
const DefaultRank = 9999

// topSubstanceCount is how many leading priority-list entries are treated
// as "top" substances when ordering selector options.
const topSubstanceCount = 5

// DefaultPriority returns the hand-curated display order for well-known
// PFAS compounds. The order reflects regulatory attention (EFSA-4 first),
// not toxicity or prevalence. Ranking never filters: substances outside
// this list still appear in every output, after the listed ones.
func DefaultPriority() []string {
	return []string{
		"PFOS",
		"PFOA",
		"PFHxS",
		"PFNA",
		"PFHxA",
		"PFBS",
		"PFPeA",
		"PFPeS",
		"PFHpA",
		"PFHpS",
		"PFDA",
		"PFUnDA",
		"PFDoDA",
		"GenX",
		"HFPO-DA",
	}
}

// Ranking assigns display ranks to substance codes from an ordered priority
// list. Rank equals the list index; absent substances get DefaultRank.
type Ranking struct {
	list  []string
	index map[string]int
}

// NewRanking builds a Ranking from an ordered substance list.
func NewRanking(substances []string) Ranking {
	index := make(map[string]int, len(substances))
	for i, s := range substances {
		if _, seen := index[s]; !seen {
			index[s] = i
		}
	}
	return Ranking{list: slices.Clone(substances), index: index}
}

// Rank returns the display rank for a substance code. Matching is exact:
// codes are case-sensitive in the source data.
func (r Ranking) Rank(substance string) int {
	if i, ok := r.index[substance]; ok {
		return i
	}
	return DefaultRank
}

// TopSubstances returns the leading priority-list entries used to front-load
// selector option lists.
func (r Ranking) TopSubstances() []string {
	n := min(topSubstanceCount, len(r.list))
	return slices.Clone(r.list[:n])
}

// OrderOptions orders the substances present in a dataset for display in a
// selector: top substances first in priority order, then the remainder
// alphabetically. Every input substance appears exactly once in the output.
func (r Ranking) OrderOptions(present []string) []string {
	seen := make(map[string]bool, len(present))
	for _, s := range present {
		seen[s] = true
	}

	ordered := make([]string, 0, len(present))
	inTop := make(map[string]bool, topSubstanceCount)
	for _, s := range r.TopSubstances() {
		if seen[s] {
			ordered = append(ordered, s)
			inTop[s] = true
		}
	}

	rest := make([]string, 0, len(present))
	for s := range seen {
		if !inTop[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// DefaultChoice picks the pre-selected substance for a selector: the highest
// priority substance when it is among the options, otherwise the first
// option. Returns "" for an empty option list.
func (r Ranking) DefaultChoice(options []string) string {
	if len(options) == 0 {
		return ""
	}
	if len(r.list) > 0 && slices.Contains(options, r.list[0]) {
		return r.list[0]
	}
	return options[0]
}

type priorityFile struct {
	Substances []string `yaml:"substances"`
}

// LoadPriority reads a priority list from a YAML file of the form:
//
//	substances:
//	  - PFOS
//	  - PFOA
//
// The declared order is the display order.
func LoadPriority(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read priority list: %w", err)
	}

	var file priorityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse priority list: %w", err)
	}

	substances := make([]string, 0, len(file.Substances))
	for _, s := range file.Substances {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("priority list %s contains an empty substance code", path)
		}
		substances = append(substances, s)
	}
	if len(substances) == 0 {
		return nil, fmt.Errorf("priority list %s declares no substances", path)
	}
	return substances, nil
}
