package domain

import "math"

const (
	temperatureCorrectionF = -8.0
	humidityCorrection     = 4.0
	pressureCorrectionHPa  = 8.0

	// Pressure gauge bounds: normal high and normal low for the San Francisco
	// Bay Area. The gauge is 10 units tall, 0 at the high end.
	pressureGaugeHigh   = 1029.0
	pressureGaugeLow    = 1000.0
	pressureGaugeHeight = 10.0
)

// SensorValues holds the uncorrected environmental readings from the sensor.
// Nil means the sensor did not report the value.
type SensorValues struct {
	TemperatureF *float64 `json:"temperature_f,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	PressureHPa  *float64 `json:"pressure_hpa,omitempty"`
}

// Environment holds corrected, display-ready environmental metrics.
type Environment struct {
	TemperatureC  *int     `json:"temperature_c,omitempty"`
	HumidityPct   *int     `json:"humidity_pct,omitempty"`
	PressureHPa   *int     `json:"pressure_hpa,omitempty"`
	PressureScale *float64 `json:"pressure_scale,omitempty"`
}

// DeriveEnvironment applies the sensor corrections and truncates to whole
// units. The pressure scale uses the corrected, untruncated pressure.
func DeriveEnvironment(v SensorValues) Environment {
	var env Environment

	if v.TemperatureF != nil {
		c := truncate((*v.TemperatureF + temperatureCorrectionF - 32) * 0.5556)
		env.TemperatureC = &c
	}
	if v.Humidity != nil {
		h := truncate(*v.Humidity + humidityCorrection)
		env.HumidityPct = &h
	}
	if v.PressureHPa != nil {
		corrected := *v.PressureHPa + pressureCorrectionHPa
		p := truncate(corrected)
		env.PressureHPa = &p
		scale := pressureScale(corrected)
		env.PressureScale = &scale
	}

	return env
}

// pressureScale positions a pressure on the gauge, clamped to [0, 10].
func pressureScale(hPa float64) float64 {
	scale := (pressureGaugeHigh - hPa) / (pressureGaugeHigh - pressureGaugeLow) * pressureGaugeHeight
	return math.Max(0, math.Min(pressureGaugeHeight, scale))
}

func truncate(v float64) int {
	return int(math.Trunc(v))
}
