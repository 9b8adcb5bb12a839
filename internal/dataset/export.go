package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
)

// WriteCSV writes rows in the canonical column order with the original
// column labels. Value and unit cells carry the raw loaded data; display
// normalization never reaches the export. Coordinates and years are written
// as held after coercion, missing fields as empty cells.
func WriteCSV(w io.Writer, rows []domain.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, m := range rows {
		record := []string{
			m.Location,
			m.Substance,
			m.Source,
			m.Medium,
			m.SampleType,
			m.Unit,
			formatYear(m.Year),
			formatFloat(m.Value),
			formatFloat(m.Lat),
			formatFloat(m.Lon),
			formatBool(m.BelowLOQ),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
