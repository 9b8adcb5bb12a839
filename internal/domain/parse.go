package domain

import (
	"math"
	"strconv"
	"strings"
)

// Field names reported in ParseNotes.Failures and used as metric labels.
const (
	FieldYear      = "year"
	FieldValue     = "value"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldLOQFlag   = "loq_flag"
)

// ParseNotes describes what happened while coercing one record. An empty
// input field is missing, not a failure; Failures lists only fields that
// held a non-empty value the parser could not interpret.
type ParseNotes struct {
	Failures            []string
	RescaledCoordinates bool
	DroppedCoordinates  bool
}

// ParseRecord coerces a raw record into a typed Measurement. It is total:
// every input produces a Measurement, with unparsable fields degraded to
// missing rather than reported as errors. String fields are trimmed and the
// literal placeholder "nan" folds to empty. Coordinates are sanitized
// per SanitizeCoordinates.
func ParseRecord(rec RawMeasurementRecord) (Measurement, ParseNotes) {
	var notes ParseNotes

	m := Measurement{
		Substance:  cleanString(rec.PFAS),
		Location:   cleanString(rec.Locatie),
		Source:     cleanString(rec.Bron),
		Medium:     cleanString(rec.Medium),
		SampleType: cleanString(rec.Sampletype),
		Unit:       cleanString(rec.Eenheid),
	}

	m.Year = parseOptYear(rec.Jaar, &notes)
	m.Value = parseOptFloat(rec.Waarde, FieldValue, &notes)

	lat := parseOptFloat(rec.Latitude, FieldLatitude, &notes)
	lon := parseOptFloat(rec.Longitude, FieldLongitude, &notes)
	m.Lat, m.Lon, notes.RescaledCoordinates = SanitizeCoordinates(lat, lon)
	if (lat != nil || lon != nil) && m.Lat == nil && m.Lon == nil {
		notes.DroppedCoordinates = true
	}
	if m.HasCoordinates() {
		m.GeoSource = GeoSourceDataset
	}

	m.BelowLOQ = parseOptBool(rec.LOQFlag, &notes)

	return m, notes
}

// SanitizeCoordinates repairs coordinates stored in a scaled integer
// representation upstream (degrees × 10,000, e.g. 514425 → 51.4425).
// The correction is row-atomic: when either coordinate is out of WGS-84
// range, both present coordinates are divided by 10,000 together. If either
// is still out of range afterwards, both become missing so the row is
// excluded from the map while remaining in every other view.
func SanitizeCoordinates(lat, lon *float64) (*float64, *float64, bool) {
	outOfRange := func(la, lo *float64) bool {
		return (la != nil && math.Abs(*la) > 90) || (lo != nil && math.Abs(*lo) > 180)
	}

	rescaled := false
	if outOfRange(lat, lon) {
		lat = scaleDown(lat)
		lon = scaleDown(lon)
		rescaled = true
	}
	if outOfRange(lat, lon) {
		return nil, nil, rescaled
	}
	return lat, lon, rescaled
}

func scaleDown(v *float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v / 10000
	return &scaled
}

// cleanString trims surrounding whitespace and folds the literal "nan"
// placeholder (an artifact of the upstream export) to the empty string.
func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// parseOptFloat parses a string as a float64, returning nil for missing or
// unparsable input. Unparsable non-empty input is recorded as a coercion
// failure under the given field name.
func parseOptFloat(s, field string, notes *ParseNotes) *float64 {
	s = cleanString(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		notes.Failures = append(notes.Failures, field)
		return nil
	}
	return &v
}

// parseOptYear parses a year column. Values like "2019" and "2019.0" both
// yield 2019; fractional years coerce to missing, never to a truncated
// integer.
func parseOptYear(s string, notes *ParseNotes) *int {
	s = cleanString(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		notes.Failures = append(notes.Failures, FieldYear)
		return nil
	}
	year := int(v)
	return &year
}

// parseOptBool parses the below-LOQ flag. Accepts boolean spellings
// ("true"/"false", "1"/"0") and numeric values (non-zero → true). Missing
// or unparsable input yields nil; aggregation treats nil as not-below-limit.
func parseOptBool(s string, notes *ParseNotes) *bool {
	s = cleanString(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		v := f != 0
		return &v
	}
	notes.Failures = append(notes.Failures, FieldLOQFlag)
	return nil
}
