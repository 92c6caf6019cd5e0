package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

// EPA reporting colours per severity tag.
var tagColors = map[string]lipgloss.Color{
	domain.ColorGreen:  lipgloss.Color("#00E400"),
	domain.ColorYellow: lipgloss.Color("#FFFF00"),
	domain.ColorOrange: lipgloss.Color("#FF7E00"),
	domain.ColorRed:    lipgloss.Color("#FF0000"),
	domain.ColorViolet: lipgloss.Color("#8F3F97"),
	domain.ColorHazard: lipgloss.Color("#7E0023"),
}

// Display writes one status line per reading.
// It implements pipeline.Loader.
type Display struct {
	mu       sync.Mutex
	w        io.Writer
	loc      *time.Location
	renderer *lipgloss.Renderer

	dim   lipgloss.Style
	label lipgloss.Style
	alert lipgloss.Style
}

// NewDisplay creates a Display writing to w. Colour output is enabled only
// when w is a terminal. A nil loc formats times in the local zone.
func NewDisplay(w io.Writer, loc *time.Location) *Display {
	if loc == nil {
		loc = time.Local
	}
	r := lipgloss.NewRenderer(w)
	return &Display{
		w:        w,
		loc:      loc,
		renderer: r,
		dim:      r.NewStyle().Foreground(lipgloss.Color("243")),
		label:    r.NewStyle().Bold(true),
		alert:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000")),
	}
}

// Load renders the reading and writes it as a single line.
func (d *Display) Load(_ context.Context, reading domain.Reading) error {
	line := d.Render(reading)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintln(d.w, line); err != nil {
		return fmt.Errorf("write status line: %w", err)
	}
	return nil
}

// Render formats a reading: time, location, AQI, category, environment,
// guidance, and an ALERT marker when the AQI jumped.
func (d *Display) Render(r domain.Reading) string {
	parts := []string{d.dim.Render(r.ObservedAt.In(d.loc).Format("15:04:05"))}

	if r.Name != "" {
		parts = append(parts, d.label.Render(r.Name))
	}
	if r.Location != nil && r.Location.Place != "" {
		parts = append(parts, d.dim.Render("("+r.Location.Place+")"))
	}

	score := d.renderer.NewStyle().Bold(true)
	if c, ok := tagColors[r.Color]; ok {
		score = score.Foreground(c)
	}
	parts = append(parts, "AQI "+score.Render(r.AQI.String()))

	category := "unavailable"
	if r.Category != "" {
		category = strings.ToLower(r.Category)
	}
	parts = append(parts, score.UnsetBold().Render(category))

	if env := formatEnvironment(r.Environment); env != "" {
		parts = append(parts, d.dim.Render(env))
	}
	if r.Guidance != "" {
		parts = append(parts, r.Guidance+".")
	}
	if r.Alert {
		parts = append(parts, d.alert.Render("ALERT"))
	}

	return strings.Join(parts, "  ")
}

func formatEnvironment(env domain.Environment) string {
	var fields []string
	if env.TemperatureC != nil {
		fields = append(fields, fmt.Sprintf("%d°C", *env.TemperatureC))
	}
	if env.HumidityPct != nil {
		fields = append(fields, fmt.Sprintf("%d%%", *env.HumidityPct))
	}
	if env.PressureHPa != nil {
		fields = append(fields, fmt.Sprintf("%d hPa", *env.PressureHPa))
	}
	return strings.Join(fields, " ")
}
