package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

// NamedLoader pairs a sink with the name used in logs and metrics.
type NamedLoader struct {
	Name   string
	Loader Loader
}

// Fanout delivers each reading to every sink. A failing sink does not
// prevent delivery to the others.
type Fanout struct {
	sinks   []NamedLoader
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(metrics *observability.Metrics, logger *slog.Logger, sinks ...NamedLoader) *Fanout {
	return &Fanout{sinks: sinks, metrics: metrics, logger: logger}
}

// Load calls every sink and joins their errors.
func (f *Fanout) Load(ctx context.Context, reading domain.Reading) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Loader.Load(ctx, reading); err != nil {
			f.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			f.logger.Warn("sink delivery failed", "sink", s.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		c, ok := s.Loader.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
