package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

type computeResult struct {
	Input    string       `json:"input"`
	AQI      domain.Score `json:"aqi"`
	Category string       `json:"category,omitempty"`
	Color    string       `json:"color,omitempty"`
	Guidance string       `json:"guidance,omitempty"`
}

func newComputeCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compute <pm2.5>...",
		Short: "Convert one or more PM2.5 concentrations",
		Long: `Convert PM2.5 concentrations (µg/m³) to AQI scores.

Values that are not numbers or fall outside 0-1000 µg/m³ are reported as
unavailable ("-"). Negative values clamp to 0.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]computeResult, 0, len(args))
			for _, arg := range args {
				results = append(results, compute(arg))
			}

			if *format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			t := newTable(cmd.OutOrStdout(), "PM2.5", "AQI", "Category", "Guidance")
			for _, r := range results {
				category := r.Category
				if category == "" {
					category = "-"
				}
				t.Row(r.Input, r.AQI.String(), category, r.Guidance)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
}

func compute(input string) computeResult {
	pm, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		pm = math.NaN()
	}

	score := domain.AQIFromPM(pm)
	res := computeResult{Input: input, AQI: score}
	if sev, ok := domain.Categorize(score); ok {
		res.Category = sev.Category.String()
		res.Color = sev.Color
		res.Guidance = sev.Guidance
	}
	return res
}
