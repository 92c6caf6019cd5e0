package domain

import "time"

// SourceKind identifies which PurpleAir endpoint produced a sample.
type SourceKind string

const (
	SourceCloud SourceKind = "cloud"
	SourceLocal SourceKind = "local"
)

// Default PM2.5 payload fields per source.
const (
	DefaultCloudPMField = "pm2.5"
	DefaultLocalPMField = "pm2.5_aqi"
)

// DefaultPMField returns the payload field read for PM2.5 when none is configured.
func DefaultPMField(source SourceKind) string {
	if source == SourceLocal {
		return DefaultLocalPMField
	}
	return DefaultCloudPMField
}

// RawSample is one unprocessed payload fetched from a sensor.
type RawSample struct {
	SensorID  string
	Source    SourceKind
	Payload   []byte
	FetchedAt time.Time
}

// Reading is the parsed and enriched form of a sample.
type Reading struct {
	ID       string     `json:"id"`
	SensorID string     `json:"sensor_id,omitempty"`
	Source   SourceKind `json:"source"`
	Name     string     `json:"name,omitempty"`

	// Location is set when the payload carries sensor coordinates.
	Location *Location `json:"location,omitempty"`

	// PM25 is the reported concentration when it was a finite number.
	PM25 *float64 `json:"pm2_5,omitempty"`
	AQI  Score    `json:"aqi"`

	Category string `json:"category,omitempty"`
	Color    string `json:"color,omitempty"`
	Guidance string `json:"guidance,omitempty"`

	Sensor      SensorValues `json:"sensor"`
	Environment Environment  `json:"environment"`

	// Alert is set by the pipeline when the AQI rose past the alert threshold
	// since the previous poll.
	Alert bool `json:"alert"`

	ObservedAt  time.Time `json:"observed_at"`
	ProcessedAt time.Time `json:"processed_at"`

	RawPayload []byte `json:"-"`
}

// Location is where the sensor sits, optionally resolved to a place.
type Location struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Place      string  `json:"place,omitempty"`
	Address    string  `json:"address,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// OutputMessage is the serialized form handed to message sinks.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
