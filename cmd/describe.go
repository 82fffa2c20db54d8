package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descRead       readFlags
	descOutputPath string
	descJSON       bool
	descSampleRows int
	descGroupBy    []string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descTopValues  int
)

var describeCmd = &cobra.Command{
	Use:     "describe <file>",
	Aliases: []string{"analyze"},
	Short:   "Summarize the columns of a CSV/TSV/XLSX file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt := analysis.DefaultOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = descOutliers
		}
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		if descTopValues > 0 {
			opt.TopValues = descTopValues
		}

		t, err := loadTable(&descRead, path)
		if err != nil {
			return err
		}
		rep, err := analysis.Describe(t, filepath.Base(path), opt)
		if err != nil {
			return err
		}

		var out []byte
		if descJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(rep.Markdown())
		}

		if descOutputPath != "" {
			if err := utils.EnsureDir(filepath.Dir(descOutputPath)); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := utils.SafeWriteFile(descOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote description to %s\n", descOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descRead.register(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the description")
	describeCmd.Flags().BoolVar(&descJSON, "json", false, "emit JSON instead of Markdown")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of head rows to include")
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().IntVar(&descTopValues, "top-values", 8, "most frequent values listed for text columns")
}
