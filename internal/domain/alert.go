package domain

// Default alert thresholds. Cloud data refreshes slowly, so a larger jump is
// needed before it is worth flagging.
const (
	DefaultCloudAlertThreshold = 30
	DefaultLocalAlertThreshold = 10
)

// AlertPolicy flags a sharp rise in AQI between consecutive polls.
type AlertPolicy struct {
	Threshold int
}

// Exceeded reports whether curr rose above prev by more than the threshold.
// An Unavailable score on either side never alerts.
func (p AlertPolicy) Exceeded(prev, curr Score) bool {
	if !prev.Available() || !curr.Available() {
		return false
	}
	return int(curr-prev) > p.Threshold
}
