// Command genmock writes the committed PFAS dataset fixtures: the bootstrap
// CSV the service loads by default and the JSON record fixture the pipeline
// tests replay. The record table is curated to cover every coercion path
// (scaled and irreparable coordinates, nan year, unparsable value, microgram
// units, a missing location, boolean and numeric LOQ flags), and the stats
// report runs the real loader so printed counts match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock
//	go run ./cmd/genmock -csv-out data/pfas_metingen.csv -json-out data/mock/pfas_metingen_mock.json
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/pfas-dashboard-service/internal/aggregate"
	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "data/pfas_metingen.csv", "output path for the bootstrap CSV dataset")
	jsonOut := flag.String("json-out", "data/mock/pfas_metingen_mock.json", "output path for the JSON record fixture")
	flag.Parse()

	records := mockRecords()

	if err := writeCSV(*csvOut, records); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s (%d rows)", *csvOut, len(records))

	if err := writeJSON(*jsonOut, records); err != nil {
		return fmt.Errorf("writing JSON fixture: %w", err)
	}
	log.Printf("wrote JSON fixture: %s", *jsonOut)

	res, err := dataset.LoadFile(*csvOut)
	if err != nil {
		return fmt.Errorf("reloading fixture through the dataset loader: %w", err)
	}
	printStats(records, res)
	return nil
}

func rec(loc, pfas, bron, medium, sampletype, eenheid, jaar, waarde, lat, lon, loq string) domain.RawMeasurementRecord {
	return domain.RawMeasurementRecord{
		Locatie:    loc,
		PFAS:       pfas,
		Bron:       bron,
		Medium:     medium,
		Sampletype: sampletype,
		Eenheid:    eenheid,
		Jaar:       jaar,
		Waarde:     waarde,
		Latitude:   lat,
		Longitude:  lon,
		LOQFlag:    loq,
	}
}

// mockRecords is the curated measurement table. Values are plausible for the
// Westerschelde monitoring region; the edge rows near the end are load-bearing
// for tests and must keep their exact cell contents.
func mockRecords() []domain.RawMeasurementRecord {
	return []domain.RawMeasurementRecord{
		// RWS surface water, Terneuzen: a five-year PFOS series plus
		// companion compounds, the backbone of the trend views.
		rec("Westerschelde Terneuzen", "PFOS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2019", "12.4", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2020", "10.8", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2021", "9.1", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2022", "8.3", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2023", "7.9", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOA", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2019", "4.2", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOA", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2020", "3.9", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFOA", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2021", "3.1", "51.3369", "3.8271", "1"),
		rec("Westerschelde Terneuzen", "PFNA", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2021", "0.8", "51.3369", "3.8271", "1"),
		rec("Westerschelde Terneuzen", "6:2 FTS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2021", "2.6", "51.3369", "3.8271", "0"),
		rec("Westerschelde Terneuzen", "PFBS", "RWS", "Oppervlaktewater", "zwevend stof", "ng/l", "2021", "1.9", "51.3369", "3.8271", "0"),

		rec("Westerschelde Hansweert", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2020", "7.6", "51.4411", "4.0131", "0"),
		rec("Westerschelde Hansweert", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "6.9", "51.4411", "4.0131", "0"),
		rec("Westerschelde Hansweert", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2022", "6.2", "51.4411", "4.0131", "0"),
		rec("Westerschelde Hansweert", "PFOA", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "2.8", "51.4411", "4.0131", "0"),
		rec("Westerschelde Hansweert", "PFHxS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "1.2", "51.4411", "4.0131", "1"),

		// Scaled-integer coordinates (degrees × 10,000), repaired on load.
		rec("Vlissingen Buitenhaven", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "5.4", "514425", "35735", "0"),
		rec("Vlissingen Buitenhaven", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2022", "4.8", "514425", "35735", "0"),
		rec("Vlissingen Buitenhaven", "PFOA", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2022", "2.1", "514425", "35735", "0"),

		rec("Kanaal Gent-Terneuzen Sas van Gent", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "15.7", "51.2258", "3.7983", "0"),
		rec("Kanaal Gent-Terneuzen Sas van Gent", "PFOA", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "6.3", "51.2258", "3.7983", "0"),
		rec("Kanaal Gent-Terneuzen Sas van Gent", "GenX", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "3.4", "51.2258", "3.7983", ""),

		// RWZI effluent in micrograms per liter; display scale multiplies
		// these by 1000.
		rec("RWZI Terneuzen", "PFOS", "RWZI", "Effluent", "effluent", "µg/l", "2021", "0.011", "51.3122", "3.8447", "0"),
		rec("RWZI Terneuzen", "PFOA", "RWZI", "Effluent", "effluent", "µg/l", "2021", "0.008", "51.3122", "3.8447", "0"),
		rec("RWZI Terneuzen", "PFBS", "RWZI", "Effluent", "effluent", "µg/l", "2021", "0.021", "51.3122", "3.8447", "0"),
		rec("RWZI Walcheren", "PFOS", "RWZI", "Effluent", "effluent", "ng/l", "2021", "14.2", "51.5058", "3.6119", "0"),
		rec("RWZI Walcheren", "PFOA", "RWZI", "Effluent", "effluent", "ng/l", "2022", "7.7", "51.5058", "3.6119", "0"),

		// WUR biota monitoring in µg/kg wet weight.
		rec("Ritthem", "PFOS", "WUR", "Biota", "bot", "µg/kg ww", "2020", "21.0", "51.4494", "3.6508", "0"),
		rec("Ritthem", "PFOS", "WUR", "Biota", "bot", "µg/kg ww", "2022", "18.5", "51.4494", "3.6508", "0"),
		rec("Ritthem", "PFOA", "WUR", "Biota", "bot", "µg/kg ww", "2022", "1.4", "51.4494", "3.6508", "1"),
		rec("Paulinapolder", "PFOS", "WUR", "Biota", "mosselen", "µg/kg ww", "2021", "8.9", "51.3511", "3.7186", "0"),
		rec("Paulinapolder", "PFNA", "WUR", "Biota", "mosselen", "µg/kg ww", "2021", "0.6", "51.3511", "3.7186", "1"),

		// Edge rows: missing location, nan year, unparsable value, and
		// coordinates too large even for the ×10,000 repair.
		rec("", "GenX", "VWS", "Zwemwater", "zwemwater", "ng/l", "2022", "1.1", "51.48", "3.70", "0"),
		rec("Ritthem", "PFOS", "WUR", "Biota", "bot", "µg/kg ww", "nan", "16.0", "51.4494", "3.6508", "0"),
		rec("Ritthem", "PFOA", "WUR", "Biota", "bot", "µg/kg ww", "2021", "n.v.t.", "51.4494", "3.6508", ""),
		rec("Oostburg", "PFOS", "RWS", "Oppervlaktewater", "oppervlaktewater", "ng/l", "2021", "3.3", "9999999", "38885", "True"),
	}
}

// writeCSV writes the raw cells, not parsed measurements: the bootstrap
// file must keep its unrepaired coordinates and unparsable cells so every
// load exercises the coercion paths.
func writeCSV(path string, records []domain.RawMeasurementRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(dataset.Columns()); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Locatie, r.PFAS, r.Bron, r.Medium, r.Sampletype,
			r.Eenheid, r.Jaar, r.Waarde, r.Latitude, r.Longitude, r.LOQFlag,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.RawMeasurementRecord, res *dataset.LoadResult) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Records: %d\n", len(records))

	sources := map[string]int{}
	for _, r := range records {
		sources[r.Bron]++
	}
	fmt.Printf("By source: RWS=%d, RWZI=%d, WUR=%d, VWS=%d\n",
		sources["RWS"], sources["RWZI"], sources["WUR"], sources["VWS"])

	fmt.Printf("Loaded rows: %d\n", res.Stats.Rows)
	fmt.Printf("Rescaled coordinates: %d\n", res.Stats.RescaledCoordinates)
	fmt.Printf("Dropped coordinates: %d\n", res.Stats.DroppedCoordinates)

	fields := make([]string, 0, len(res.Stats.CoercionFailures))
	for f := range res.Stats.CoercionFailures {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	fmt.Printf("Coercion failures (%d):", res.Stats.FailureTotal())
	for _, f := range fields {
		fmt.Printf(" %s=%d", f, res.Stats.CoercionFailures[f])
	}
	fmt.Println()

	summary := aggregate.Summarize(res.Measurements)
	fmt.Printf("Distinct locations: %d\n", summary.DistinctLocations)
	fmt.Printf("Rows with coordinates: %d\n", summary.RowsWithCoords)
	fmt.Printf("Below LOQ: %d\n", summary.BelowLOQ)
	fmt.Printf("Units: %v\n", summary.Units)

	missingLocation := 0
	for _, m := range res.Measurements {
		if m.Location == "" {
			missingLocation++
		}
	}
	fmt.Printf("Rows without location: %d\n", missingLocation)

	combos := aggregate.EligibleCombos(res.Measurements)
	fmt.Printf("\nTrend-eligible combos (%d):\n", len(combos))
	for _, c := range combos {
		fmt.Printf("  %s / %s / %s / %s: %d years\n",
			c.Substance, c.Location, c.Medium, c.Source, c.YearCount)
	}
}
