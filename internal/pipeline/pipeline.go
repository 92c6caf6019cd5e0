package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

// Source fetches one raw payload from a sensor.
type Source interface {
	Fetch(ctx context.Context) (domain.RawSample, error)
}

// Transformer converts a raw sample into an enriched reading.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawSample) (domain.Reading, error)
}

// Loader delivers a reading to its destination.
type Loader interface {
	Load(ctx context.Context, reading domain.Reading) error
}

// Settings configures the polling loop.
type Settings struct {
	Interval       time.Duration
	AlertThreshold int
	// Clock drives the poll ticker. Nil uses the real clock.
	Clock clockwork.Clock
}

// Pipeline polls a sensor on a fixed interval and pushes each reading to a loader.
type Pipeline struct {
	source      Source
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	policy      domain.AlertPolicy
	clock       clockwork.Clock

	ready  atomic.Bool
	paused atomic.Bool
	latest atomic.Pointer[domain.Reading]
	resume chan struct{}
}

// New creates a Pipeline with the given stages and observability.
func New(s Source, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, settings Settings) *Pipeline {
	clk := settings.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:      s,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		interval:    settings.Interval,
		policy:      domain.AlertPolicy{Threshold: settings.AlertThreshold},
		clock:       clk,
		resume:      make(chan struct{}, 1),
	}
}

// CheckReadiness returns nil once a poll has produced a reading.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no sensor reading received yet")
	}
	return nil
}

// Latest returns the most recent reading, if any.
func (p *Pipeline) Latest() (domain.Reading, bool) {
	r := p.latest.Load()
	if r == nil {
		return domain.Reading{}, false
	}
	return *r, true
}

// Paused reports whether polling is suspended.
func (p *Pipeline) Paused() bool {
	return p.paused.Load()
}

// Pause suspends polling. Ticks that arrive while paused are dropped.
func (p *Pipeline) Pause() {
	if p.paused.CompareAndSwap(false, true) {
		p.metrics.PollingPaused.Set(1)
		p.logger.Info("polling paused")
	}
}

// Resume restarts polling with an immediate refresh and a fresh interval.
func (p *Pipeline) Resume() {
	if !p.paused.CompareAndSwap(true, false) {
		return
	}
	p.metrics.PollingPaused.Set(0)
	p.logger.Info("polling resumed")
	select {
	case p.resume <- struct{}{}:
	default:
	}
}

// Run polls immediately, then on every interval, until the context is cancelled.
// Failed polls are logged and counted; they never stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "alert_threshold", p.policy.Threshold)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	if !p.paused.Load() {
		// The startup refresh covers a Resume issued before Run.
		p.drainResume()
		p.refresh(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if p.paused.Load() {
				continue
			}
			p.refresh(ctx)
		case <-p.resume:
			if p.paused.Load() {
				continue
			}
			ticker.Reset(p.interval)
			p.refresh(ctx)
		}
	}
}

func (p *Pipeline) drainResume() {
	select {
	case <-p.resume:
	default:
	}
}

// refresh runs one fetch-transform-load cycle.
func (p *Pipeline) refresh(ctx context.Context) {
	start := p.clock.Now()
	p.metrics.PollsTotal.Inc()

	raw, err := p.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("sensor poll failed", "error", err)
		p.metrics.PollErrors.Inc()
		return
	}

	reading, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		p.logger.Warn("transform failed, skipping sample", "error", err, "source", raw.Source)
		p.metrics.TransformErrors.Inc()
		return
	}

	if prev := p.latest.Load(); prev != nil && p.policy.Exceeded(prev.AQI, reading.AQI) {
		reading.Alert = true
		p.metrics.AlertsTotal.Inc()
		p.logger.Warn("aqi rising",
			"previous", prev.AQI,
			"current", reading.AQI,
			"threshold", p.policy.Threshold,
		)
	}

	p.observe(reading)
	p.latest.Store(&reading)
	p.ready.Store(true)

	if err := p.loader.Load(ctx, reading); err != nil {
		p.logger.Error("load reading failed", "error", err, "reading_id", reading.ID)
	} else {
		p.metrics.ReadingsPublished.Inc()
	}

	p.metrics.PollDuration.Observe(p.clock.Since(start).Seconds())
}

func (p *Pipeline) observe(r domain.Reading) {
	if r.AQI.Available() {
		p.metrics.CurrentAQI.Set(float64(r.AQI))
	} else {
		p.metrics.UnavailableReadings.Inc()
	}
	if r.PM25 != nil {
		p.metrics.PM25Concentration.Set(*r.PM25)
	}
	p.logger.Debug("reading processed",
		"reading_id", r.ID,
		"sensor_id", r.SensorID,
		"aqi", r.AQI,
		"category", r.Category,
	)
}
