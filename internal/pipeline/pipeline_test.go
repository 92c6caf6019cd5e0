package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
	"github.com/couchcryptid/aqi-monitor/internal/pipeline"
)

const testInterval = time.Minute

// --- mocks ---

type fetchResult struct {
	sample domain.RawSample
	err    error
}

// stubSource replays results in order, repeating the last one once exhausted.
type stubSource struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (s *stubSource) Fetch(_ context.Context) (domain.RawSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].sample, s.results[i].err
}

type recordingLoader struct {
	readings chan domain.Reading
	err      error
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{readings: make(chan domain.Reading, 16)}
}

func (l *recordingLoader) Load(_ context.Context, r domain.Reading) error {
	l.readings <- r
	return l.err
}

func (l *recordingLoader) next(t *testing.T) domain.Reading {
	t.Helper()
	select {
	case r := <-l.readings:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reading")
		return domain.Reading{}
	}
}

func cloudSample(pm string) fetchResult {
	payload := fmt.Sprintf(`{"time_stamp":1714143000,"sensor":{"name":"Backyard","pm2.5":%s}}`, pm)
	return fetchResult{sample: domain.RawSample{SensorID: "26353", Source: domain.SourceCloud, Payload: []byte(payload)}}
}

type harness struct {
	pipeline *pipeline.Pipeline
	loader   *recordingLoader
	metrics  *observability.Metrics
	clock    *clockwork.FakeClock
	cancel   context.CancelFunc
	done     chan error
}

// newHarness builds a pipeline on a fake clock without starting it.
func newHarness(src pipeline.Source, loader *recordingLoader, threshold int) *harness {
	fakeClock := clockwork.NewFakeClock()
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, pipeline.NewTransformer("", nil, slog.Default()), loader, slog.Default(), metrics, pipeline.Settings{
		Interval:       testInterval,
		AlertThreshold: threshold,
		Clock:          fakeClock,
	})
	return &harness{pipeline: p, loader: loader, metrics: metrics, clock: fakeClock, done: make(chan error, 1)}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.pipeline.Run(ctx) }()
	t.Cleanup(h.stop)
}

func startPipeline(t *testing.T, src pipeline.Source, loader *recordingLoader, threshold int) *harness {
	t.Helper()
	h := newHarness(src, loader, threshold)
	h.start(t)
	return h
}

// tick waits for the poll ticker to be registered, then fires it.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(testInterval)
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

// --- tests ---

func TestPipeline_Run_PollsImmediatelyThenOnTick(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("5"), cloudSample("40")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	first := h.loader.next(t)
	assert.Equal(t, domain.Score(21), first.AQI)
	assert.False(t, first.Alert)
	require.NoError(t, h.pipeline.CheckReadiness(context.Background()))

	h.tick(t)
	second := h.loader.next(t)
	assert.Equal(t, domain.Score(112), second.AQI)
	assert.True(t, second.Alert, "AQI rose by more than the threshold")

	latest, ok := h.pipeline.Latest()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.AlertsTotal), 0)
	assert.InDelta(t, 112, testutil.ToFloat64(h.metrics.CurrentAQI), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.ReadingsPublished), 0)
}

func TestPipeline_Run_RiseWithinThresholdDoesNotAlert(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("5"), cloudSample("10")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.loader.next(t)
	h.tick(t)
	second := h.loader.next(t)
	assert.False(t, second.Alert)
}

func TestPipeline_Run_UnavailableNeverAlerts(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("null"), cloudSample("200")}}
	h := startPipeline(t, src, newRecordingLoader(), 0)

	first := h.loader.next(t)
	assert.Equal(t, domain.Unavailable, first.AQI)
	assert.Empty(t, first.Category)

	h.tick(t)
	second := h.loader.next(t)
	assert.True(t, second.AQI.Available())
	assert.False(t, second.Alert)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.UnavailableReadings), 0)
}

func TestPipeline_Run_FetchErrorContinues(t *testing.T) {
	src := &stubSource{results: []fetchResult{{err: errors.New("connection refused")}, cloudSample("12")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.tick(t)
	reading := h.loader.next(t)
	assert.Equal(t, domain.Score(50), reading.AQI)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.PollErrors), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.PollsTotal), 0)
}

func TestPipeline_Run_TransformErrorSkipsSample(t *testing.T) {
	bad := fetchResult{sample: domain.RawSample{Source: domain.SourceCloud, Payload: []byte("{")}}
	src := &stubSource{results: []fetchResult{bad, cloudSample("12")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.tick(t)
	reading := h.loader.next(t)
	assert.Equal(t, domain.Score(50), reading.AQI)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.TransformErrors), 0)
}

func TestPipeline_Run_LoadErrorKeepsLatest(t *testing.T) {
	loader := newRecordingLoader()
	loader.err = errors.New("broker unavailable")
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	h := startPipeline(t, src, loader, domain.DefaultCloudAlertThreshold)

	reading := loader.next(t)
	latest, ok := h.pipeline.Latest()
	require.True(t, ok)
	assert.Equal(t, reading.ID, latest.ID)
	require.NoError(t, h.pipeline.CheckReadiness(context.Background()))
	assert.Zero(t, testutil.ToFloat64(h.metrics.ReadingsPublished))
}

func TestPipeline_PauseResume(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.loader.next(t)

	h.pipeline.Pause()
	assert.True(t, h.pipeline.Paused())
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.PollingPaused), 0)

	h.tick(t)
	assert.Never(t, func() bool { return len(h.loader.readings) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	h.pipeline.Resume()
	assert.False(t, h.pipeline.Paused())
	h.loader.next(t)
	assert.Zero(t, testutil.ToFloat64(h.metrics.PollingPaused))
}

func TestPipeline_StaleResumeDoesNotPollWhilePaused(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	h := newHarness(src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.pipeline.Pause()
	h.pipeline.Resume()
	h.pipeline.Pause()
	h.start(t)

	assert.Never(t, func() bool { return len(h.loader.readings) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.True(t, h.pipeline.Paused())

	h.pipeline.Resume()
	h.loader.next(t)
}

func TestPipeline_ResumeBeforeRunPollsOnce(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	h := newHarness(src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.pipeline.Pause()
	h.pipeline.Resume()
	h.start(t)

	h.loader.next(t)
	assert.Never(t, func() bool { return len(h.loader.readings) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestPipeline_ResumeWhenNotPausedIsNoop(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	h := startPipeline(t, src, newRecordingLoader(), domain.DefaultCloudAlertThreshold)

	h.loader.next(t)
	h.pipeline.Resume()
	assert.Never(t, func() bool { return len(h.loader.readings) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestPipeline_NotReadyBeforeFirstPoll(t *testing.T) {
	p := pipeline.New(&stubSource{}, pipeline.NewTransformer("", nil, slog.Default()), newRecordingLoader(),
		slog.Default(), observability.NewMetricsForTesting(), pipeline.Settings{Interval: testInterval})

	require.Error(t, p.CheckReadiness(context.Background()))
	_, ok := p.Latest()
	assert.False(t, ok)
	assert.False(t, p.Paused())
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	src := &stubSource{results: []fetchResult{cloudSample("12")}}
	p := pipeline.New(src, pipeline.NewTransformer("", nil, slog.Default()), newRecordingLoader(),
		slog.Default(), observability.NewMetricsForTesting(), pipeline.Settings{Interval: testInterval, Clock: clockwork.NewFakeClock()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
}
