package domain

import (
	"context"
	"time"
)

// RawMeasurementRecord represents one flat record of the source dataset.
// Field names follow the Dutch column labels used by the monitoring
// programmes; the CSV loader and the Kafka ingest topic share this shape.
// All fields are strings: coercion into typed values happens in ParseRecord.
type RawMeasurementRecord struct {
	Locatie    string `json:"Locatie"`
	PFAS       string `json:"PFAS"`
	Bron       string `json:"Bron"`
	Medium     string `json:"Medium"`
	Sampletype string `json:"Sampletype"`
	Eenheid    string `json:"Eenheid"`
	Jaar       string `json:"Jaar"`
	Waarde     string `json:"Waarde"`
	Latitude   string `json:"Latitude"`
	Longitude  string `json:"Longitude"`
	LOQFlag    string `json:"LOQ_flag"`
}

// RawMessage represents an unprocessed message from the ingest topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// GeoSource values recorded on a Measurement.
const (
	GeoSourceDataset = "dataset"         // coordinates came from the source record
	GeoSourceForward = "forward-geocode" // coordinates filled in by forward geocoding
	GeoSourceFailed  = "failed"          // geocoding was attempted and failed
)

// Measurement is the typed representation of one dataset row. Nullable
// columns use pointer fields; nil means the source value was absent or
// could not be coerced. The raw Value/Unit pair is never rewritten by
// unit normalization; normalized values are derived per view.
type Measurement struct {
	Substance  string   `json:"substance"`
	Location   string   `json:"location"`
	Source     string   `json:"source"`
	Medium     string   `json:"medium"`
	SampleType string   `json:"sample_type"`
	Unit       string   `json:"unit"`
	Year       *int     `json:"year,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	BelowLOQ   *bool    `json:"below_loq,omitempty"`

	GeoSource string `json:"geo_source,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
// Rows without coordinates stay in tabular and statistical views but are
// excluded from the map.
func (m Measurement) HasCoordinates() bool {
	return m.Lat != nil && m.Lon != nil
}

// UnknownLocationLabel is the display label for rows whose location name is
// missing; it appears on map markers so unnamed sampling points still group.
const UnknownLocationLabel = "(onbekend)"

// DisplayLocation returns the location name, or UnknownLocationLabel when
// the name is missing.
func (m Measurement) DisplayLocation() string {
	if m.Location == "" {
		return UnknownLocationLabel
	}
	return m.Location
}
