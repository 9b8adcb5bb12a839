package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// Canonical column labels of the source table, in canonical order. The
// loader matches headers case-insensitively and also accepts English
// aliases so generated fixtures and re-exported subsets round-trip.
const (
	ColLocation   = "Locatie"
	ColSubstance  = "PFAS"
	ColSource     = "Bron"
	ColMedium     = "Medium"
	ColSampleType = "Sampletype"
	ColUnit       = "Eenheid"
	ColYear       = "Jaar"
	ColValue      = "Waarde"
	ColLatitude   = "Latitude"
	ColLongitude  = "Longitude"
	ColLOQFlag    = "LOQ_flag"
)

// Columns returns the canonical column order used for export.
func Columns() []string {
	return []string{
		ColLocation, ColSubstance, ColSource, ColMedium, ColSampleType,
		ColUnit, ColYear, ColValue, ColLatitude, ColLongitude, ColLOQFlag,
	}
}

// columnFor resolves a header cell to its canonical column, or "" when the
// column is not recognized. Unrecognized columns are carried by some source
// extracts and are ignored.
func columnFor(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "﻿")))
	switch h {
	case "locatie", "location":
		return ColLocation
	case "pfas", "substance":
		return ColSubstance
	case "bron", "source":
		return ColSource
	case "medium":
		return ColMedium
	case "sampletype", "sample_type":
		return ColSampleType
	case "eenheid", "unit":
		return ColUnit
	case "jaar", "year":
		return ColYear
	case "waarde", "value":
		return ColValue
	case "latitude", "lat":
		return ColLatitude
	case "longitude", "lon":
		return ColLongitude
	case "loq_flag", "below_loq":
		return ColLOQFlag
	default:
		return ""
	}
}

// LoadStats aggregates parse outcomes across one load for logging,
// metrics, and the validate command.
type LoadStats struct {
	Rows                int
	CoercionFailures    map[string]int
	RescaledCoordinates int
	DroppedCoordinates  int
}

// FailureTotal sums the per-field coercion failure counts.
func (s LoadStats) FailureTotal() int {
	total := 0
	for _, n := range s.CoercionFailures {
		total += n
	}
	return total
}

// LoadResult is one parsed dataset: the typed rows plus the SHA-256
// fingerprint of the source bytes that identifies the content.
type LoadResult struct {
	Measurements []domain.Measurement
	Fingerprint  string
	Stats        LoadStats
}

// LoadFile reads and parses the dataset CSV at path.
func LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	res, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}

// Load parses CSV bytes into measurements. Parsing is lenient the way the
// domain parser is: malformed cells degrade to missing fields and are
// counted, short rows read as empty cells. Only structural problems
// (unreadable CSV, no recognized columns) return an error.
func Load(data []byte) (*LoadResult, error) {
	sum := sha256.Sum256(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		if col := columnFor(h); col != "" {
			colIdx[col] = i
		}
	}
	if len(colIdx) == 0 {
		return nil, fmt.Errorf("no recognized columns in header %v", rows[0])
	}

	res := &LoadResult{
		Measurements: make([]domain.Measurement, 0, len(rows)-1),
		Fingerprint:  hex.EncodeToString(sum[:]),
		Stats:        LoadStats{CoercionFailures: map[string]int{}},
	}

	for _, row := range rows[1:] {
		rec := domain.RawMeasurementRecord{
			Locatie:    get(row, colIdx, ColLocation),
			PFAS:       get(row, colIdx, ColSubstance),
			Bron:       get(row, colIdx, ColSource),
			Medium:     get(row, colIdx, ColMedium),
			Sampletype: get(row, colIdx, ColSampleType),
			Eenheid:    get(row, colIdx, ColUnit),
			Jaar:       get(row, colIdx, ColYear),
			Waarde:     get(row, colIdx, ColValue),
			Latitude:   get(row, colIdx, ColLatitude),
			Longitude:  get(row, colIdx, ColLongitude),
			LOQFlag:    get(row, colIdx, ColLOQFlag),
		}

		m, notes := domain.ParseRecord(rec)
		res.Measurements = append(res.Measurements, m)

		for _, field := range notes.Failures {
			res.Stats.CoercionFailures[field]++
		}
		if notes.RescaledCoordinates {
			res.Stats.RescaledCoordinates++
		}
		if notes.DroppedCoordinates {
			res.Stats.DroppedCoordinates++
		}
	}
	res.Stats.Rows = len(res.Measurements)

	return res, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
