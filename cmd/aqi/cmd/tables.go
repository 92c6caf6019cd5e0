package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
)

func newBreakpointsCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "breakpoints",
		Short: "Print the PM2.5 breakpoint table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bps := domain.Breakpoints()
			if *format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), bps)
			}

			t := newTable(cmd.OutOrStdout(), "PM2.5 low", "PM2.5 high", "AQI low", "AQI high")
			for _, bp := range bps {
				t.Row(
					fmt.Sprintf("%.1f", bp.ConcLow),
					fmt.Sprintf("%.1f", bp.ConcHigh),
					bp.IndexLow.String(),
					bp.IndexHigh.String(),
				)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
}

type categoryRow struct {
	Min      domain.Score `json:"min"`
	Max      domain.Score `json:"max"`
	Category string       `json:"category"`
	Color    string       `json:"color"`
	Guidance string       `json:"guidance,omitempty"`
}

func newCategoriesCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the AQI severity ladder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tiers := domain.Tiers()
			rows := make([]categoryRow, 0, len(tiers))
			for _, tier := range tiers {
				rows = append(rows, categoryRow{
					Min:      tier.Min,
					Max:      tier.Max,
					Category: tier.Category.String(),
					Color:    tier.Color,
					Guidance: tier.Guidance,
				})
			}

			if *format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			t := newTable(cmd.OutOrStdout(), "AQI", "Category", "Colour", "Guidance")
			for _, r := range rows {
				t.Row(fmt.Sprintf("%d-%d", r.Min, r.Max), r.Category, r.Color, r.Guidance)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
}
