package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat        float64
	Lon        float64
	PlaceName  string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// Geocoder fills in missing geography on measurements.
type Geocoder interface {
	// ForwardGeocode converts a monitoring location name to coordinates.
	ForwardGeocode(ctx context.Context, name string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to a place name.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
