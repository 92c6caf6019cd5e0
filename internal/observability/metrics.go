package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aqi_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the polling pipeline.
type Metrics struct {
	PollsTotal           prometheus.Counter
	PollErrors           prometheus.Counter
	TransformErrors      prometheus.Counter
	ReadingsPublished    prometheus.Counter
	UnavailableReadings  prometheus.Counter
	AlertsTotal          prometheus.Counter
	SinkErrors           *prometheus.CounterVec // labels: sink={console,kafka,mqtt}
	PipelineRunning      prometheus.Gauge
	PollingPaused        prometheus.Gauge
	CurrentAQI           prometheus.Gauge
	PM25Concentration    prometheus.Gauge
	PollDuration         prometheus.Histogram
	SensorRequestLatency *prometheus.HistogramVec // labels: source={cloud,local}
	GeocodeRequests      *prometheus.CounterVec   // labels: result={hit,miss,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PollsTotal,
		m.PollErrors,
		m.TransformErrors,
		m.ReadingsPublished,
		m.UnavailableReadings,
		m.AlertsTotal,
		m.SinkErrors,
		m.PipelineRunning,
		m.PollingPaused,
		m.CurrentAQI,
		m.PM25Concentration,
		m.PollDuration,
		m.SensorRequestLatency,
		m.GeocodeRequests,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total sensor polls attempted.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total sensor polls that failed to fetch a payload.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total payloads that could not be parsed.",
		}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_published_total",
			Help:      "Total readings delivered to every configured sink.",
		}),
		UnavailableReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unavailable_readings_total",
			Help:      "Total readings whose PM2.5 value could not be converted to an AQI.",
		}),
		AlertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total polls where the AQI rose past the alert threshold.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Sink delivery failures by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		PollingPaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "polling_paused",
			Help:      "1 while polling is paused.",
		}),
		CurrentAQI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_aqi",
			Help:      "Most recent available AQI score.",
		}),
		PM25Concentration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pm25_concentration",
			Help:      "Most recent PM2.5 reading in µg/m³.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete fetch-transform-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SensorRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sensor_request_duration_seconds",
			Help:      "PurpleAir request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding lookups by result.",
		}, []string{"result"}),
	}
}
