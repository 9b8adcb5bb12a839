// Package domain models PFAS measurement data from the Zeeland monitoring
// programmes.
//
// # Data Source
//
// Measurements are aggregated from several Dutch monitoring programmes
// (RWS, WUR, RWZI effluent surveys, VWS) into one flat dataset with Dutch
// column labels:
//
//	Locatie, PFAS, Bron, Medium, Sampletype, Eenheid,
//	Jaar, Waarde, Latitude, Longitude, LOQ_flag
//
// The dataset arrives as a CSV file (bulk load) and optionally as
// JSON-encoded rows on a Kafka topic (incremental ingest). Both paths share
// [RawMeasurementRecord] and one coercion routine, [ParseRecord].
//
// # Dataset Conventions
//
// Coordinates:
//
//	Some programmes export WGS-84 coordinates as scaled integers
//	(degrees × 10,000): 514425 means 51.4425. The repair is row-atomic:
//	when either coordinate of a row is out of range, both are divided by
//	10,000 together, never one field alone. Rows whose coordinates are
//	still out of range afterwards lose both values and stay off the map
//	while remaining in tables and statistics. See [SanitizeCoordinates].
//
// Units:
//
//	Concentrations are mostly ng/l with a minority of rows in micrograms
//	per liter, spelled "ug/l" or "µg/l" depending on the programme. A
//	conversion table ([UnitTable]) scales those onto ng/l for display and
//	aggregation only; the recorded Waarde/Eenheid pair is never rewritten,
//	and a selection mixing unit labels must surface a warning rather than
//	being merged silently.
//
// Missing values:
//
//	Unparsable numerics coerce to missing, never to zero. Some exports
//	carry the literal string "nan" in text columns; it folds to empty.
//	A fractional Jaar is treated as missing, not truncated.
//
// Below-LOQ flags:
//
//	LOQ_flag marks values below the limit of quantification. The flag may
//	be boolean or numeric 0/1 depending on the programme; a missing flag
//	counts as not-below-limit in aggregation.
//
// # Display Ordering
//
// Well-known PFAS compounds carry a hand-curated priority order
// ([DefaultPriority]) used everywhere measurements or substance options are
// listed: listed compounds first in declared order, everything else after,
// alphabetically. Ranking orders display only; it never filters data.
package domain
