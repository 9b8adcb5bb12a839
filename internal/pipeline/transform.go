package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// MeasurementTransformer implements Transformer: it decodes the JSON
// payload into a raw record, coerces it through the domain parser, and
// optionally fills missing coordinates by forward geocoding. Only a payload
// that is not valid JSON for a record fails; cell-level problems degrade to
// missing fields the same way the file loader degrades them.
type MeasurementTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a MeasurementTransformer. Pass a nil geocoder to
// disable geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *MeasurementTransformer {
	return &MeasurementTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *MeasurementTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.Measurement, error) {
	var rec domain.RawMeasurementRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return domain.Measurement{}, fmt.Errorf("decoding measurement record: %w", err)
	}

	m, notes := domain.ParseRecord(rec)
	if len(notes.Failures) > 0 {
		t.logger.Warn("stream record fields degraded to missing",
			"fields", notes.Failures,
			"topic", raw.Topic,
			"offset", raw.Offset,
		)
	}

	m = domain.EnrichWithGeocoding(ctx, m, t.geocoder, t.logger)

	return m, nil
}

// StoreAppender adapts the dataset store to the BatchAppender interface.
type StoreAppender struct {
	store *dataset.Store
}

// NewStoreAppender wraps a store for use as the pipeline sink.
func NewStoreAppender(store *dataset.Store) *StoreAppender {
	return &StoreAppender{store: store}
}

func (a *StoreAppender) AppendBatch(_ context.Context, rows []domain.Measurement) error {
	a.store.Append(rows)
	return nil
}
