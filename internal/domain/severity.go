package domain

// Category is one of the six EPA health-impact tiers, ordered from least to
// most severe.
type Category int

const (
	CategoryGood Category = iota
	CategoryModerate
	CategoryUnhealthySensitive
	CategoryUnhealthy
	CategoryVeryUnhealthy
	CategoryHazardous
)

func (c Category) String() string {
	switch c {
	case CategoryGood:
		return "Good"
	case CategoryModerate:
		return "Moderate"
	case CategoryUnhealthySensitive:
		return "Unhealthy for Sensitive Groups"
	case CategoryUnhealthy:
		return "Unhealthy"
	case CategoryVeryUnhealthy:
		return "Very Unhealthy"
	case CategoryHazardous:
		return "Hazardous"
	default:
		return "Unknown"
	}
}

// Colour tags used by display sinks.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorOrange = "orange"
	ColorRed    = "red"
	ColorViolet = "violet"
	ColorHazard = "hazard"
)

// Severity is the display contract for a score: tier, guidance text, colour.
type Severity struct {
	Category Category
	Guidance string
	Color    string
}

// Tier is a row of the severity ladder with its inclusive score range.
type Tier struct {
	Min Score
	Max Score
	Severity
}

// tiers is ordered by ascending Min; Categorize scans it from the top.
var tiers = [...]Tier{
	{Min: 0, Max: 49, Severity: Severity{
		Category: CategoryGood,
		Color:    ColorGreen,
	}},
	{Min: 50, Max: 99, Severity: Severity{
		Category: CategoryModerate,
		Color:    ColorYellow,
		Guidance: "Unusually sensitive people should consider reducing prolonged or heavy outdoor exertion",
	}},
	{Min: 100, Max: 149, Severity: Severity{
		Category: CategoryUnhealthySensitive,
		Color:    ColorOrange,
		Guidance: "Active children and adults, and people with respiratory disease, such as asthma, should limit prolonged outdoor exertion",
	}},
	{Min: 150, Max: 199, Severity: Severity{
		Category: CategoryUnhealthy,
		Color:    ColorRed,
		Guidance: "Active children and adults, and people with respiratory disease, such as asthma, should avoid prolonged outdoor exertion; everyone else, especially children, should limit prolonged outdoor exertion",
	}},
	{Min: 200, Max: 299, Severity: Severity{
		Category: CategoryVeryUnhealthy,
		Color:    ColorViolet,
		Guidance: "Everyone should avoid all outdoor exertion",
	}},
	{Min: 300, Max: MaxScore, Severity: Severity{
		Category: CategoryHazardous,
		Color:    ColorHazard,
	}},
}

// Tiers returns a copy of the severity ladder, least severe first.
func Tiers() []Tier {
	t := tiers
	return t[:]
}

// Categorize maps a score to its severity tier. It returns false for
// Unavailable, which has no category; callers render a placeholder instead.
func Categorize(score Score) (Severity, bool) {
	if !score.Available() {
		return Severity{}, false
	}
	for i := len(tiers) - 1; i >= 0; i-- {
		if score >= tiers[i].Min {
			return tiers[i].Severity, true
		}
	}
	return Severity{}, false
}
