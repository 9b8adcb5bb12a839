// Package dataset loads the measurement table from disk and hosts it in
// memory for the dashboard.
//
// The table is small enough to keep resident, so there is no database:
// Load parses the whole CSV into typed measurements, the Store holds the
// result as an immutable Snapshot behind a RWMutex, and every view
// recomputes from the current snapshot. Snapshots are identified by a
// SHA-256 fingerprint of the source bytes; a reload of an unchanged file
// is a no-op, which makes the periodic refresh cheap to run aggressively.
//
// Filtering is progressive: option lists follow the sidebar order
// (source, medium, substance, year, sample type, location) and each tier
// only reflects the selections of the tiers before it. The view subset
// additionally drops rows without a measured value. Export writes the
// subset back out with the original column labels and the raw value and
// unit, so normalization never leaks into downloaded data.
package dataset
