package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// readingNamespace seeds deterministic UUIDv5 reading IDs.
var readingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:aqi-monitor:reading"))

// cloudPayload is the envelope returned by GET /v1/sensors/{id}. The sensor
// object is kept as raw fields because the PM field name is configurable.
type cloudPayload struct {
	TimeStamp     int64                      `json:"time_stamp"`
	DataTimeStamp int64                      `json:"data_time_stamp"`
	Sensor        map[string]json.RawMessage `json:"sensor"`
}

// ParseSample decodes a sensor payload into a Reading and converts its PM2.5
// field to an AQI score. An empty pmField selects the source's default.
//
// The PM field may be a number, a numeric string, null, or absent. Absent and
// null are missing readings; anything else that is not a number is invalid.
// Both yield an Unavailable score rather than an error. Only malformed JSON or
// an unknown source is an error.
func ParseSample(raw RawSample, pmField string) (Reading, error) {
	if pmField == "" {
		pmField = DefaultPMField(raw.Source)
	}

	var (
		fields     map[string]json.RawMessage
		observedAt int64
		reading    = Reading{SensorID: raw.SensorID, Source: raw.Source, RawPayload: raw.Payload}
	)

	switch raw.Source {
	case SourceCloud:
		var p cloudPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return Reading{}, fmt.Errorf("parse sample: %w", err)
		}
		if p.Sensor == nil {
			return Reading{}, errors.New("parse sample: missing sensor object")
		}
		fields = p.Sensor
		observedAt = p.TimeStamp
		if observedAt == 0 {
			observedAt = p.DataTimeStamp
		}
		reading.Name = stringField(fields, "name")
		if reading.SensorID == "" {
			reading.SensorID = stringField(fields, "sensor_index")
		}
		reading.Location = location(fields, "latitude", "longitude")
		reading.Sensor = SensorValues{
			TemperatureF: finite(numberField(fields, "temperature")),
			Humidity:     finite(numberField(fields, "humidity")),
			PressureHPa:  finite(numberField(fields, "pressure")),
		}
	case SourceLocal:
		if err := json.Unmarshal(raw.Payload, &fields); err != nil {
			return Reading{}, fmt.Errorf("parse sample: %w", err)
		}
		if ts := finite(numberField(fields, "response_date")); ts != nil {
			observedAt = int64(*ts)
		}
		reading.Name = stringField(fields, "Geo")
		if reading.SensorID == "" {
			reading.SensorID = stringField(fields, "SensorId")
		}
		reading.Location = location(fields, "lat", "lon")
		reading.Sensor = SensorValues{
			TemperatureF: finite(numberField(fields, "current_temp_f")),
			Humidity:     finite(numberField(fields, "current_humidity")),
			PressureHPa:  finite(numberField(fields, "pressure")),
		}
	default:
		return Reading{}, fmt.Errorf("parse sample: unknown source %q", raw.Source)
	}

	pm := numberField(fields, pmField)
	reading.AQI = ComputeAQI(pm)
	reading.PM25 = finite(pm)

	switch {
	case observedAt > 0:
		reading.ObservedAt = time.Unix(observedAt, 0).UTC()
	case !raw.FetchedAt.IsZero():
		reading.ObservedAt = raw.FetchedAt.UTC()
	default:
		reading.ObservedAt = clock.Now().UTC()
	}

	reading.ID = readingID(reading.Source, reading.SensorID, reading.ObservedAt)
	return reading, nil
}

// numberField extracts a numeric field. Absent or null yields nil; a value
// that is neither a number nor a numeric string yields NaN.
func numberField(fields map[string]json.RawMessage, key string) *float64 {
	data, ok := fields[key]
	if !ok || string(data) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}

	nan := math.NaN()
	return &nan
}

// stringField extracts a string or number field as text, or "" if absent.
func stringField(fields map[string]json.RawMessage, key string) string {
	data, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	return ""
}

// location reads a coordinate pair. Missing values and the 0,0 placeholder
// some firmware reports yield nil.
func location(fields map[string]json.RawMessage, latKey, lonKey string) *Location {
	lat := finite(numberField(fields, latKey))
	lon := finite(numberField(fields, lonKey))
	if lat == nil || lon == nil || (*lat == 0 && *lon == 0) {
		return nil
	}
	return &Location{Lat: *lat, Lon: *lon}
}

// finite drops NaN and infinite values.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// readingID derives a deterministic ID so that re-polling a sensor that has
// not refreshed yields the same ID downstream.
func readingID(source SourceKind, sensorID string, observedAt time.Time) string {
	name := fmt.Sprintf("%s|%s|%d", source, sensorID, observedAt.Unix())
	return uuid.NewSHA1(readingNamespace, []byte(name)).String()
}

// EnrichReading derives the severity tier and corrected environmental
// metrics from a parsed reading and stamps ProcessedAt.
func EnrichReading(r Reading) Reading {
	r.Category, r.Color, r.Guidance = "", "", ""
	if sev, ok := Categorize(r.AQI); ok {
		r.Category = sev.Category.String()
		r.Color = sev.Color
		r.Guidance = sev.Guidance
	}
	r.Environment = DeriveEnvironment(r.Sensor)
	r.ProcessedAt = clock.Now()
	return r
}

// SerializeReading marshals a reading into a sink message keyed by sensor ID.
func SerializeReading(r Reading) (OutputMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize reading: %w", err)
	}

	category := r.Category
	if category == "" {
		category = "unavailable"
	}

	return OutputMessage{
		Key:   []byte(r.SensorID),
		Value: data,
		Headers: map[string]string{
			"sensor_id":    r.SensorID,
			"category":     category,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
