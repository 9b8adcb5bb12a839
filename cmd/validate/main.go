// Command validate runs integrity checks over the committed PFAS dataset
// fixtures: the bootstrap CSV, the JSON record fixture, and the loader's
// parsed output. It verifies cell-level parity between the fixtures,
// coordinate sanitization invariants, unit table coverage, and trend
// eligibility, and exits non-zero on any failure so fixture regressions
// fail fast in CI.
//
// Usage:
//
//	go run ./cmd/validate
//	go run ./cmd/validate -csv data/pfas_metingen.csv -json data/mock/pfas_metingen_mock.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/pfas-dashboard-service/internal/aggregate"
	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "data/pfas_metingen.csv", "path to the bootstrap CSV dataset")
	jsonPath := flag.String("json", "data/mock/pfas_metingen_mock.json", "path to the JSON record fixture")
	flag.Parse()

	if code := run(*csvPath, *jsonPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, jsonPath string) int {
	// ── Load all data sources ──
	fmt.Println("=== PFAS Dataset Integrity Validation ===")
	fmt.Println()

	header, rawRows, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset CSV: %v\n", err)
		return 1
	}

	records, err := loadJSON[domain.RawMeasurementRecord](jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load JSON fixture: %v\n", err)
		return 1
	}

	res, err := dataset.LoadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse dataset: %v\n", err)
		return 1
	}
	combos := aggregate.EligibleCombos(res.Measurements)

	// ── Run validation phases ──
	phases := []*phase{
		validateFixtureParity(header, rawRows, records),
		validateLoaderIntegrity(res, records),
		validateUnitCoverage(res.Measurements),
		validateTrendEligibility(res.Measurements, combos),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV rows, %d JSON records, %d measurements, %d trend combos\n",
		len(rawRows), len(records), len(res.Measurements), len(combos))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]string, []csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, rec := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				fields[h] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return header, rows, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// cellsFor returns a record's cells in the canonical column order, matching
// the layout genmock writes.
func cellsFor(rec domain.RawMeasurementRecord) []string {
	return []string{
		rec.Locatie, rec.PFAS, rec.Bron, rec.Medium, rec.Sampletype,
		rec.Eenheid, rec.Jaar, rec.Waarde, rec.Latitude, rec.Longitude, rec.LOQFlag,
	}
}

// ── Phase 1: Fixture Parity ──
// Validates that the JSON record fixture matches the bootstrap CSV cell by
// cell: same count, same cells, canonical header.

func validateFixtureParity(header []string, rows []csvRow, records []domain.RawMeasurementRecord) *phase {
	p := &phase{name: "Phase 1: Fixture Parity (CSV vs JSON)"}

	want := dataset.Columns()
	if strings.Join(header, ",") != strings.Join(want, ",") {
		p.errorf("CSV header is %v, want %v", header, want)
	}

	if len(rows) != len(records) {
		p.errorf("CSV has %d rows, JSON fixture has %d records", len(rows), len(records))
	}

	n := len(rows)
	if len(records) < n {
		n = len(records)
	}
	for i := 0; i < n; i++ {
		cells := cellsFor(records[i])
		for j, col := range want {
			if got := rows[i].fields[col]; got != cells[j] {
				p.errorf("line %d: column %q: CSV=%q, JSON=%q", rows[i].lineNum, col, got, cells[j])
			}
		}
	}
	return p
}

// ── Phase 2: Loader Integrity ──
// Validates the loader's parsed measurements against the raw records:
// string passthrough, coordinate sanitization, and stats consistency.

func validateLoaderIntegrity(res *dataset.LoadResult, records []domain.RawMeasurementRecord) *phase {
	p := &phase{name: "Phase 2: Loader Integrity (parsed rows)"}

	if res.Fingerprint == "" {
		p.errorf("load result has an empty fingerprint")
	}
	if res.Stats.Rows != len(res.Measurements) {
		p.errorf("stats report %d rows, loader returned %d measurements", res.Stats.Rows, len(res.Measurements))
	}
	if len(res.Measurements) != len(records) {
		p.errorf("loader returned %d measurements for %d records", len(res.Measurements), len(records))
		return p
	}

	for i, m := range res.Measurements {
		rec := records[i]
		checkPassthrough(p, i, "Locatie", rec.Locatie, m.Location)
		checkPassthrough(p, i, "PFAS", rec.PFAS, m.Substance)
		checkPassthrough(p, i, "Bron", rec.Bron, m.Source)
		checkPassthrough(p, i, "Medium", rec.Medium, m.Medium)
		checkPassthrough(p, i, "Sampletype", rec.Sampletype, m.SampleType)
		checkPassthrough(p, i, "Eenheid", rec.Eenheid, m.Unit)

		if (m.Lat == nil) != (m.Lon == nil) {
			p.errorf("record %d (%s): latitude and longitude must be present or missing together", i+1, m.DisplayLocation())
		}
		if m.Lat != nil && (*m.Lat < -90 || *m.Lat > 90) {
			p.errorf("record %d (%s): latitude %g out of WGS-84 range", i+1, m.DisplayLocation(), *m.Lat)
		}
		if m.Lon != nil && (*m.Lon < -180 || *m.Lon > 180) {
			p.errorf("record %d (%s): longitude %g out of WGS-84 range", i+1, m.DisplayLocation(), *m.Lon)
		}
		if m.HasCoordinates() != (m.GeoSource == domain.GeoSourceDataset) {
			p.errorf("record %d (%s): geo_source %q inconsistent with coordinates", i+1, m.DisplayLocation(), m.GeoSource)
		}
	}
	return p
}

func checkPassthrough(p *phase, i int, col, raw, got string) {
	if want := clean(raw); got != want {
		p.errorf("record %d: column %q: loader produced %q, want %q", i+1, col, got, want)
	}
}

// clean mirrors the loader's string coercion: surrounding whitespace is
// trimmed and the upstream "nan" placeholder folds to empty.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// ── Phase 3: Unit Coverage ──
// Validates that every per-liter concentration unit in the dataset can be
// placed on the display scale. Non-liter units (biota µg/kg) are not
// comparable and pass through unconverted.

func validateUnitCoverage(rows []domain.Measurement) *phase {
	p := &phase{name: "Phase 3: Unit Coverage (display scale)"}

	table := domain.DefaultUnitTable()
	counts := map[string]int{}
	for _, m := range rows {
		if m.Unit != "" {
			counts[m.Unit]++
		}
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		lower := strings.ToLower(label)
		if !strings.HasSuffix(lower, "g/l") || lower == domain.DisplayUnit {
			continue
		}
		if _, ok := table[lower]; !ok {
			p.errorf("unit %q (%d rows) is a per-liter concentration with no factor onto %s", label, counts[label], domain.DisplayUnit)
		}
	}
	return p
}

// ── Phase 4: Trend Eligibility ──
// Validates the eligible-combo computation against an independent year
// count, the documented sort order, and the selector options derived
// from it.

func validateTrendEligibility(rows []domain.Measurement, combos []aggregate.Combo) *phase {
	p := &phase{name: "Phase 4: Trend Eligibility (combos)"}

	if len(combos) == 0 {
		p.errorf("no combination reaches %d distinct years; every trend view would be empty", aggregate.MinTrendYears)
		return p
	}

	type comboKey struct {
		substance, location, medium, source string
	}
	years := make(map[comboKey]map[int]bool)
	for _, m := range rows {
		if m.Year == nil {
			continue
		}
		k := comboKey{m.Substance, m.Location, m.Medium, m.Source}
		if years[k] == nil {
			years[k] = make(map[int]bool)
		}
		years[k][*m.Year] = true
	}

	for i, c := range combos {
		if c.YearCount < aggregate.MinTrendYears {
			p.errorf("combo %s / %s / %s / %s: year count %d below minimum %d",
				c.Substance, c.Location, c.Medium, c.Source, c.YearCount, aggregate.MinTrendYears)
		}
		want := len(years[comboKey{c.Substance, c.Location, c.Medium, c.Source}])
		if c.YearCount != want {
			p.errorf("combo %s / %s / %s / %s: reports %d years, dataset has %d",
				c.Substance, c.Location, c.Medium, c.Source, c.YearCount, want)
		}
		if i > 0 && !comboLess(combos[i-1], c) {
			p.errorf("combos out of lexicographic order at index %d (%s / %s)", i, c.Substance, c.Location)
		}
	}

	opts := aggregate.ComboOptions(combos, aggregate.TrendSelection{}, domain.NewRanking(domain.DefaultPriority()))
	if len(opts.Substances) == 0 || opts.DefaultSubstance == "" {
		p.errorf("selector options are empty despite %d eligible combos", len(combos))
	}
	if !opts.Valid {
		p.errorf("empty selection reports invalid despite %d eligible combos", len(combos))
	}
	return p
}

func comboLess(a, b aggregate.Combo) bool {
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
}
