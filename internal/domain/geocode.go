package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills gaps in a measurement's geography. Rows with a
// location name but no usable coordinates are forward geocoded; rows with
// coordinates but no name get one from reverse geocoding. If geocoder is
// nil or a lookup fails, the measurement comes back unchanged apart from
// GeoSource (graceful degradation: enrichment never blocks ingest).
func EnrichWithGeocoding(ctx context.Context, m Measurement, geocoder Geocoder, logger *slog.Logger) Measurement {
	if geocoder == nil {
		return m
	}

	// Forward geocode: location name → coordinates.
	if !m.HasCoordinates() && m.Location != "" {
		result, err := geocoder.ForwardGeocode(ctx, m.Location)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"location", m.Location,
				"error", err,
			)
			m.GeoSource = GeoSourceFailed
			return m
		}
		if result.Lat != 0 || result.Lon != 0 {
			m.Lat = &result.Lat
			m.Lon = &result.Lon
			m.GeoSource = GeoSourceForward
		}
		return m
	}

	// Reverse geocode: coordinates → place name.
	if m.HasCoordinates() && m.Location == "" {
		result, err := geocoder.ReverseGeocode(ctx, *m.Lat, *m.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", *m.Lat,
				"lon", *m.Lon,
				"error", err,
			)
			return m
		}
		if result.PlaceName != "" {
			m.Location = result.PlaceName
		}
		return m
	}

	return m
}
