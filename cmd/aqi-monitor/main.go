package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/aqi-monitor/internal/adapter/console"
	httpadapter "github.com/couchcryptid/aqi-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/aqi-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/aqi-monitor/internal/adapter/mapbox"
	mqttadapter "github.com/couchcryptid/aqi-monitor/internal/adapter/mqtt"
	"github.com/couchcryptid/aqi-monitor/internal/adapter/sensor"
	"github.com/couchcryptid/aqi-monitor/internal/config"
	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
	"github.com/couchcryptid/aqi-monitor/internal/pipeline"
)

const keyValidationAttempts = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := newSource(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize sensor source", "error", err)
		os.Exit(1)
	}

	sinks, err := newSinks(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize sinks", "error", err)
		os.Exit(1)
	}

	transformer := pipeline.NewTransformer(cfg.PMField, newGeocoder(cfg, metrics, logger), logger)
	p := pipeline.New(source, transformer, sinks, logger, metrics, pipeline.Settings{
		Interval:       cfg.PollInterval,
		AlertThreshold: cfg.AlertThreshold,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start polling.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := sinks.Close(); err != nil {
		logger.Error("sink close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newSource builds the sensor client for the configured source. Cloud keys
// are checked up front so a bad key fails at startup instead of every poll.
func newSource(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (pipeline.Source, error) {
	if cfg.SensorSource == domain.SourceLocal {
		logger.Info("polling local sensor", "addr", cfg.LocalAddr, "interval", cfg.PollInterval)
		return sensor.NewLocalClient(cfg.LocalAddr, cfg.SensorTimeout, metrics, logger), nil
	}

	client := sensor.NewCloudClient(cfg.APIKey, cfg.SensorID, cfg.APIBaseURL, cfg.SensorTimeout, metrics, logger)
	if cfg.ValidateAPIKey {
		if err := client.AwaitValidKey(ctx, keyValidationAttempts); err != nil {
			return nil, err
		}
	}
	logger.Info("polling cloud sensor", "sensor_id", cfg.SensorID, "interval", cfg.PollInterval)
	return client, nil
}

// newGeocoder returns nil when place resolution is disabled.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if !cfg.MapboxEnabled {
		return nil
	}
	logger.Info("mapbox place resolution enabled", "cache_size", cfg.MapboxCacheSize)
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	return mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
}

func newSinks(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*pipeline.Fanout, error) {
	var sinks []pipeline.NamedLoader

	if cfg.ConsoleEnabled {
		sinks = append(sinks, pipeline.NamedLoader{Name: "console", Loader: console.NewDisplay(os.Stdout, nil)})
	}
	if cfg.KafkaEnabled {
		sinks = append(sinks, pipeline.NamedLoader{Name: "kafka", Loader: kafkaadapter.NewWriter(cfg, logger)})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.MQTTEnabled {
		pub, err := mqttadapter.Connect(cfg, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pipeline.NamedLoader{Name: "mqtt", Loader: pub})
		logger.Info("mqtt sink enabled", "broker", cfg.MQTTBrokerURL, "topic", cfg.MQTTTopic)
	}

	if len(sinks) == 0 {
		logger.Warn("no sinks enabled, readings are only available over http")
	}
	return pipeline.NewFanout(metrics, logger, sinks...), nil
}
