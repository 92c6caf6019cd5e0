package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

// ReadingTransformer implements Transformer using the domain parse and enrich functions.
type ReadingTransformer struct {
	pmField  string
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a ReadingTransformer. An empty pmField reads the
// source's default PM2.5 field. geocoder may be nil to skip place resolution.
func NewTransformer(pmField string, geocoder domain.Geocoder, logger *slog.Logger) *ReadingTransformer {
	return &ReadingTransformer{
		pmField:  pmField,
		geocoder: geocoder,
		logger:   logger,
	}
}

// Transform parses and enriches a raw sample, then resolves its place when a
// geocoder is configured.
func (t *ReadingTransformer) Transform(ctx context.Context, raw domain.RawSample) (domain.Reading, error) {
	reading, err := domain.ParseSample(raw, t.pmField)
	if err != nil {
		return domain.Reading{}, err
	}

	if !reading.AQI.Available() {
		field := t.pmField
		if field == "" {
			field = domain.DefaultPMField(raw.Source)
		}
		t.logger.Warn("pm2.5 value unavailable", "source", raw.Source, "field", field, "sensor_id", reading.SensorID)
	}

	reading = domain.EnrichReading(reading)
	return domain.ResolvePlace(ctx, reading, t.geocoder, t.logger), nil
}
