package domain

import (
	"context"
	"log/slog"
)

// Place resolution outcomes recorded on Location.Source.
const (
	PlaceSourceReverse  = "reverse"
	PlaceSourceFailed   = "failed"
	PlaceSourceOriginal = "original"
)

// ResolvePlace reverse geocodes the sensor's coordinates into a place name.
// A nil geocoder or a reading without coordinates is returned unchanged; a
// geocoding failure keeps the coordinates and marks the source as failed.
func ResolvePlace(ctx context.Context, r Reading, geocoder Geocoder, logger *slog.Logger) Reading {
	if geocoder == nil || r.Location == nil {
		return r
	}

	loc := *r.Location
	r.Location = &loc

	result, err := geocoder.ReverseGeocode(ctx, loc.Lat, loc.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"reading_id", r.ID,
			"lat", loc.Lat,
			"lon", loc.Lon,
			"error", err,
		)
		loc.Source = PlaceSourceFailed
		return r
	}
	if result.FormattedAddress == "" {
		loc.Source = PlaceSourceOriginal
		return r
	}

	loc.Place = result.PlaceName
	loc.Address = result.FormattedAddress
	loc.Confidence = result.Confidence
	loc.Source = PlaceSourceReverse
	return r
}
