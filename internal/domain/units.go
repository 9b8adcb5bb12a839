package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DisplayUnit is the unit all normalized values are expressed in.
const DisplayUnit = "ng/l"

// UnitTable maps lowercase unit labels to multiplicative factors into the
// display unit. Labels absent from the table pass through with factor 1,
// on the assumption they are already in the display unit or not directly
// comparable; mixed labels in a selection must still surface a warning
// downstream. Normalization is gated on the label, never on the value, so
// an already-normalized value is never rescaled twice.
type UnitTable map[string]float64

// DefaultUnitTable returns the built-in conversion table. The source data
// reports concentrations in ng/l with a minority of rows in micrograms per
// liter under two spellings.
func DefaultUnitTable() UnitTable {
	return UnitTable{
		"ug/l": 1000,
		"µg/l": 1000,
	}
}

// Factor returns the conversion factor for a unit label, matching
// case-insensitively. Unknown labels return 1.
func (t UnitTable) Factor(unit string) float64 {
	f, ok := t[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 1
	}
	return f
}

// Normalize converts a value recorded in the given unit onto the display
// scale. The stored value is never modified; callers keep the result in a
// separate derived field.
func (t UnitTable) Normalize(value float64, unit string) float64 {
	return value * t.Factor(unit)
}

// DisplayValue returns the measurement's value on the display scale, or nil
// when the value is missing.
func (t UnitTable) DisplayValue(m Measurement) *float64 {
	if m.Value == nil {
		return nil
	}
	v := t.Normalize(*m.Value, m.Unit)
	return &v
}

type unitTableFile struct {
	Factors map[string]float64 `yaml:"factors"`
}

// LoadUnitTable reads a conversion table from a YAML file of the form:
//
//	factors:
//	  ug/l: 1000
//	  µg/l: 1000
//
// Labels are lowercased on load. Declaring a new interchangeable unit is a
// data change, not a code change.
func LoadUnitTable(path string) (UnitTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit table: %w", err)
	}

	var file unitTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse unit table: %w", err)
	}
	if len(file.Factors) == 0 {
		return nil, fmt.Errorf("unit table %s declares no factors", path)
	}

	table := make(UnitTable, len(file.Factors))
	for label, factor := range file.Factors {
		if factor <= 0 {
			return nil, fmt.Errorf("unit table %s: factor for %q must be positive, got %g", path, label, factor)
		}
		table[strings.ToLower(strings.TrimSpace(label))] = factor
	}
	return table, nil
}
