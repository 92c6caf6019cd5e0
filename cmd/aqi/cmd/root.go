// Package cmd provides the aqi CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// NewRootCmd builds the aqi command tree.
func NewRootCmd() *cobra.Command {
	var format string

	root := &cobra.Command{
		Use:   "aqi",
		Short: "Convert PM2.5 concentrations to EPA Air Quality Index scores",
		Long: `aqi converts PM2.5 concentrations (µg/m³) to US EPA AQI scores and
prints the tables the conversion is based on.

Examples:
  aqi compute 12.5 40 180
  aqi compute --format json 35.5
  aqi breakpoints
  aqi categories`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unknown format %q: want %s or %s", format, formatTable, formatJSON)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&format, "format", "f", formatTable, "output format (table, json)")

	root.AddCommand(newComputeCmd(&format))
	root.AddCommand(newBreakpointsCmd(&format))
	root.AddCommand(newCategoriesCmd(&format))

	return root
}

func newTable(w io.Writer, headers ...string) *table.Table {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
