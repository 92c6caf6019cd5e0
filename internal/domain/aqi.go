package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Score is an EPA Air Quality Index value in [0, 500], or Unavailable.
type Score int

// Unavailable marks a reading that could not be converted to an index.
const Unavailable Score = -1

const (
	// MaxConcentration is the highest PM2.5 concentration (µg/m³) the
	// converter accepts; anything above is outside the sensor's range.
	MaxConcentration = 1000.0

	// MaxScore is the top of the AQI scale.
	MaxScore Score = 500
)

// Available reports whether s holds an index value.
func (s Score) Available() bool {
	return s >= 0
}

// String renders the score for display, with "-" standing in for Unavailable.
func (s Score) String() string {
	if !s.Available() {
		return "-"
	}
	return strconv.Itoa(int(s))
}

// MarshalJSON encodes Unavailable as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Available() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON decodes null and out-of-scale values as Unavailable.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Unavailable
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode aqi score: %w", err)
	}
	if v < 0 || Score(v) > MaxScore {
		*s = Unavailable
		return nil
	}
	*s = Score(v)
	return nil
}

// Breakpoint is one band of the EPA PM2.5 piecewise-linear table.
type Breakpoint struct {
	ConcLow   float64 // BPl, µg/m³
	ConcHigh  float64 // BPh, µg/m³
	IndexLow  Score   // Il
	IndexHigh Score   // Ih
}

// breakpoints is ordered from the highest concentration band to the lowest;
// AQIFromPM relies on that order.
var breakpoints = [...]Breakpoint{
	{ConcLow: 350.5, ConcHigh: 500.0, IndexLow: 401, IndexHigh: 500},
	{ConcLow: 250.5, ConcHigh: 350.4, IndexLow: 301, IndexHigh: 400},
	{ConcLow: 150.5, ConcHigh: 250.4, IndexLow: 201, IndexHigh: 300},
	{ConcLow: 55.5, ConcHigh: 150.4, IndexLow: 151, IndexHigh: 200},
	{ConcLow: 35.5, ConcHigh: 55.4, IndexLow: 101, IndexHigh: 150},
	{ConcLow: 12.1, ConcHigh: 35.4, IndexLow: 51, IndexHigh: 100},
	{ConcLow: 0, ConcHigh: 12.0, IndexLow: 0, IndexHigh: 50},
}

// Breakpoints returns a copy of the breakpoint table, highest band first.
func Breakpoints() []Breakpoint {
	bps := breakpoints
	return bps[:]
}

// ComputeAQI converts a PM2.5 concentration to an AQI score. A nil
// concentration is a missing reading and yields Unavailable.
func ComputeAQI(pm *float64) Score {
	if pm == nil {
		return Unavailable
	}
	return AQIFromPM(*pm)
}

// AQIFromPM converts a PM2.5 concentration (µg/m³) to an AQI score:
//   - NaN and values above MaxConcentration are Unavailable
//   - negative values clamp to 0
//   - everything else interpolates within the first band, scanning from the
//     top, whose lower bound is strictly below pm (the bottom band also takes 0)
//
// Results above MaxScore (500.5 < pm <= 1000) are capped at MaxScore.
func AQIFromPM(pm float64) Score {
	switch {
	case math.IsNaN(pm):
		return Unavailable
	case pm < 0:
		return 0
	case pm > MaxConcentration:
		return Unavailable
	}

	last := len(breakpoints) - 1
	for i, bp := range breakpoints {
		if pm > bp.ConcLow || (i == last && pm == bp.ConcLow) {
			return interpolate(pm, bp)
		}
	}
	return Unavailable
}

// interpolate applies the EPA AQI equation within a single band.
func interpolate(pm float64, bp Breakpoint) Score {
	slope := float64(bp.IndexHigh-bp.IndexLow) / (bp.ConcHigh - bp.ConcLow)
	aqi := Score(math.Round(slope*(pm-bp.ConcLow) + float64(bp.IndexLow)))
	if aqi > MaxScore {
		return MaxScore
	}
	return aqi
}
