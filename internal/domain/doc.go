// Package domain converts PurpleAir sensor readings into EPA Air Quality Index
// scores and the display data derived from them.
//
// # Data Sources
//
// Readings come from one of two PurpleAir endpoints:
//
//	cloud: GET https://api.purpleair.com/v1/sensors/{id}  (X-API-Key header)
//	       {"time_stamp": 1700000000, "sensor": {"name": "Backyard", "pm2.5": 8.4, ...}}
//	local: GET http://{device}/json?live=true
//	       {"SensorId": "84:f3:eb:7b:c8:a1", "pm2.5_aqi": 12, "current_temp_f": 75, ...}
//
// The PM field name is configurable; the defaults are "pm2.5" for the cloud
// API and "pm2.5_aqi" for the local device.
//
// # AQI Conversion
//
// PM2.5 concentrations (µg/m³) map to an index in [0, 500] by piecewise-linear
// interpolation across the EPA breakpoint table (see [ComputeAQI]):
//
//	AQI = round(((Ih - Il) / (BPh - BPl)) * (Cp - BPl) + Il)
//
// Bands are scanned from the highest concentration down; a band matches when
// the concentration strictly exceeds its lower bound, and the lowest band also
// accepts exactly zero. Missing or non-numeric readings yield [Unavailable],
// negative readings clamp to 0, and readings above 1000 µg/m³ are Unavailable.
//
// # Severity
//
// Scores map to six tiers with the thresholds 50/100/150/200/300:
//
//	Good | Moderate | Unhealthy for Sensitive Groups | Unhealthy | Very Unhealthy | Hazardous
//
// Each tier carries a colour tag and the EPA activity guidance text.
//
// # Environment Corrections
//
// PurpleAir housings run warm and the BME280 reads low, so derived metrics
// apply fixed offsets: temperature -8 °F before conversion to °C, humidity +4 %,
// pressure +8 hPa. The pressure scale positions the corrected pressure on a
// 0–10 gauge between 1029 hPa (top) and 1000 hPa (bottom).
package domain
