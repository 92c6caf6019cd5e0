package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt on enriched readings and stands in for the fetch
// time when a payload carries no timestamp. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by ParseSample and EnrichReading.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
