package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	plotRead  readFlags
	plotKind  string
	plotBins  int
	plotTop   int
	plotWidth int
)

var plotCmd = &cobra.Command{
	Use:   "plot <file> <column>",
	Short: "Print a text histogram or value-count chart for one column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		t, err := loadTable(&plotRead, args[0])
		if err != nil {
			return err
		}
		var ch *analysis.Chart
		switch strings.ToLower(plotKind) {
		case "hist", "histogram":
			bins := plotBins
			if bins <= 0 {
				bins = c.HistogramBins
			}
			ch, err = analysis.Histogram(t, args[1], bins)
		case "bar", "counts":
			top := plotTop
			if top <= 0 {
				top = c.BarTop
			}
			ch, err = analysis.BarChart(t, args[1], top)
		default:
			return fmt.Errorf("unsupported --kind: %s (use hist|bar)", plotKind)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ch.Render(plotWidth))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotRead.register(plotCmd)
	plotCmd.Flags().StringVarP(&plotKind, "kind", "k", "hist", "chart kind: hist|bar")
	plotCmd.Flags().IntVar(&plotBins, "bins", 0, "histogram bins (default from config)")
	plotCmd.Flags().IntVar(&plotTop, "top", 0, "bar chart: most frequent values shown (default from config)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 0, "maximum bar width in characters")
}
