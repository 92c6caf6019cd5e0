package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		score    Score
		expected Category
		color    string
	}{
		{0, CategoryGood, ColorGreen},
		{49, CategoryGood, ColorGreen},
		{50, CategoryModerate, ColorYellow},
		{99, CategoryModerate, ColorYellow},
		{100, CategoryUnhealthySensitive, ColorOrange},
		{149, CategoryUnhealthySensitive, ColorOrange},
		{150, CategoryUnhealthy, ColorRed},
		{199, CategoryUnhealthy, ColorRed},
		{200, CategoryVeryUnhealthy, ColorViolet},
		{299, CategoryVeryUnhealthy, ColorViolet},
		{300, CategoryHazardous, ColorHazard},
		{500, CategoryHazardous, ColorHazard},
	}

	for _, tt := range tests {
		t.Run(tt.score.String(), func(t *testing.T) {
			sev, ok := Categorize(tt.score)
			require.True(t, ok)
			assert.Equal(t, tt.expected, sev.Category)
			assert.Equal(t, tt.color, sev.Color)
		})
	}
}

func TestCategorize_Unavailable(t *testing.T) {
	sev, ok := Categorize(Unavailable)
	assert.False(t, ok)
	assert.Equal(t, Severity{}, sev)
}

func TestCategorize_Guidance(t *testing.T) {
	good, _ := Categorize(10)
	assert.Empty(t, good.Guidance)

	hazardous, _ := Categorize(420)
	assert.Empty(t, hazardous.Guidance)

	moderate, _ := Categorize(75)
	assert.Contains(t, moderate.Guidance, "Unusually sensitive people")

	veryUnhealthy, _ := Categorize(250)
	assert.Equal(t, "Everyone should avoid all outdoor exertion", veryUnhealthy.Guidance)
}

func TestTiers_CoverScale(t *testing.T) {
	ts := Tiers()
	require.Len(t, ts, 6)
	assert.Equal(t, Score(0), ts[0].Min)
	assert.Equal(t, MaxScore, ts[len(ts)-1].Max)
	for i := 1; i < len(ts); i++ {
		assert.Equal(t, ts[i-1].Max+1, ts[i].Min)
		assert.Greater(t, ts[i].Category, ts[i-1].Category)
	}
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "Unhealthy for Sensitive Groups", CategoryUnhealthySensitive.String())
	assert.Equal(t, "Very Unhealthy", CategoryVeryUnhealthy.String())
	assert.Equal(t, "Unknown", Category(42).String())
}
