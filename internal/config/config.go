package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SensorSource   domain.SourceKind
	SensorID       string
	APIKey         string
	APIBaseURL     string
	LocalAddr      string
	PMField        string
	SensorTimeout  time.Duration
	PollInterval   time.Duration
	AlertThreshold int
	ValidateAPIKey bool

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	MQTTEnabled   bool
	MQTTBrokerURL string
	MQTTTopic     string
	MQTTClientID  string

	ConsoleEnabled bool

	MapboxEnabled   bool
	MapboxToken     string
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// Poll interval and alert threshold defaults depend on the sensor source: the
// cloud API refreshes about once a minute, the local device every few seconds.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	source := domain.SourceKind(strings.ToLower(sharedcfg.EnvOrDefault("SENSOR_SOURCE", string(domain.SourceCloud))))
	if source != domain.SourceCloud && source != domain.SourceLocal {
		return nil, fmt.Errorf("invalid SENSOR_SOURCE %q: want cloud or local", source)
	}

	defaultInterval, defaultThreshold := "1m", domain.DefaultCloudAlertThreshold
	if source == domain.SourceLocal {
		defaultInterval, defaultThreshold = "6s", domain.DefaultLocalAlertThreshold
	}

	sensorTimeout, err := parsePositiveDuration("SENSOR_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", defaultInterval)
	if err != nil {
		return nil, err
	}
	alertThreshold, err := parseNonNegativeInt("ALERT_THRESHOLD", defaultThreshold)
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxCacheSize, err := parseNonNegativeInt("MAPBOX_CACHE_SIZE", 64)
	if err != nil || mapboxCacheSize == 0 {
		return nil, errors.New("invalid MAPBOX_CACHE_SIZE")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	mqttURL := os.Getenv("MQTT_BROKER_URL")
	mapboxToken := strings.TrimSpace(os.Getenv("MAPBOX_TOKEN"))

	cfg := &Config{
		SensorSource:   source,
		SensorID:       strings.TrimSpace(os.Getenv("SENSOR_ID")),
		APIKey:         strings.ToUpper(strings.TrimSpace(os.Getenv("PURPLEAIR_API_KEY"))),
		APIBaseURL:     strings.TrimRight(sharedcfg.EnvOrDefault("PURPLEAIR_API_URL", "https://api.purpleair.com/v1"), "/"),
		LocalAddr:      strings.TrimSpace(os.Getenv("SENSOR_LOCAL_ADDR")),
		PMField:        sharedcfg.EnvOrDefault("SENSOR_PM_FIELD", domain.DefaultPMField(source)),
		SensorTimeout:  sensorTimeout,
		PollInterval:   pollInterval,
		AlertThreshold: alertThreshold,
		ValidateAPIKey: envBool("VALIDATE_API_KEY", true),

		KafkaEnabled: envBool("KAFKA_ENABLED", len(brokers) > 0),
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "air-quality-readings"),

		MQTTEnabled:   envBool("MQTT_ENABLED", mqttURL != ""),
		MQTTBrokerURL: mqttURL,
		MQTTTopic:     sharedcfg.EnvOrDefault("MQTT_TOPIC", "sensors/air-quality"),
		MQTTClientID:  sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "aqi-monitor"),

		ConsoleEnabled: envBool("CONSOLE_ENABLED", true),

		MapboxEnabled:   envBool("MAPBOX_ENABLED", mapboxToken != ""),
		MapboxToken:     mapboxToken,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SensorSource {
	case domain.SourceCloud:
		if c.SensorID == "" {
			return errors.New("SENSOR_ID is required for the cloud source")
		}
		if c.APIKey == "" {
			return errors.New("PURPLEAIR_API_KEY is required for the cloud source")
		}
	case domain.SourceLocal:
		if c.LocalAddr == "" {
			return errors.New("SENSOR_LOCAL_ADDR is required for the local source")
		}
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if c.MQTTEnabled && c.MQTTBrokerURL == "" {
		return errors.New("MQTT_ENABLED is true but MQTT_BROKER_URL is not set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true"
}
