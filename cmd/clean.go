package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/wrangle-cli/internal/config"
	"github.com/KaramelBytes/wrangle-cli/internal/recipe"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/tableio"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanRead       readFlags
	cleanRecipePath string
	cleanSteps      []string
	cleanOutput     string
	cleanBOM        bool
	cleanDryRun     bool
	cleanShowLog    bool
	cleanSheetOut   string
	cleanSaveRecipe string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Apply a cleaning recipe to one file and export the result",
	Long: `Apply recipe steps in order to a CSV/TSV/XLSX file. Steps come from a YAML
recipe (--recipe) and/or inline one-line steps (--step), e.g.

  wrangle clean sales.csv -s dedupe -s "missing amount median" -s "filter region != test"

Processing stops at the first failing step and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		c := currentConfig()
		r, err := buildRecipe(cleanRecipePath, cleanSteps)
		if err != nil {
			return err
		}
		opt, err := cleanRead.options(c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		sess, msg, err := loadSession(c, input, opt)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
		if err := applyRecipe(out, sess, r); err != nil {
			return err
		}
		if cleanShowLog {
			printLog(out, sess)
		}
		if cleanSaveRecipe != "" {
			if err := saveRecipe(r, cleanSaveRecipe); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Saved recipe (%d steps) to %s\n", len(r.Steps), cleanSaveRecipe)
		}
		if cleanDryRun {
			fmt.Fprint(out, analysis.Preview(sess.Current(), c.PreviewRows))
			return nil
		}

		dest := cleanOutput
		if dest == "" {
			dest = cleanOutputPath("", input, "")
		}
		if err := tableio.WriteFile(sess.Current(), dest, writeOptions(c, cmd, cleanBOM, cleanSheetOut)); err != nil {
			return err
		}
		t := sess.Current()
		fmt.Fprintf(out, "✓ Wrote %d rows, %d columns to %s\n", t.NumRows(), t.NumCols(), dest)
		return nil
	},
}

// applyRecipe runs r and prints one progress line per step.
func applyRecipe(out io.Writer, sess *session.Session, r *recipe.Recipe) error {
	_, err := recipe.Run(sess, r, func(i int, st recipe.Step, msg string) {
		fmt.Fprintf(out, "  [%d/%d] %s: %s\n", i+1, len(r.Steps), st, msg)
	})
	return err
}

// saveRecipe writes the combined recipe so a run can be repeated with --recipe.
func saveRecipe(r *recipe.Recipe, path string) error {
	b, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create recipe dir: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

func printLog(out io.Writer, sess *session.Session) {
	fmt.Fprintln(out, "Action log:")
	for _, e := range sess.Log() {
		fmt.Fprintf(out, "  %s\n", e)
	}
}

// writeOptions resolves export settings; a changed --bom flag wins over config.
func writeOptions(c *cfgpkg.Global, cmd *cobra.Command, bom bool, sheet string) tableio.WriteOptions {
	opt := tableio.WriteOptions{BOM: c.ExportBOM, SheetName: sheet}
	if cmd.Flags().Changed("bom") {
		opt.BOM = bom
	}
	return opt
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanRead.register(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanRecipePath, "recipe", "r", "", "YAML recipe file")
	cleanCmd.Flags().StringArrayVarP(&cleanSteps, "step", "s", nil, "inline step, e.g. \"missing amount mean\" (repeatable, runs after --recipe)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output path (default <name>.clean<ext> next to the input)")
	cleanCmd.Flags().BoolVar(&cleanBOM, "bom", false, "prefix CSV output with a UTF-8 BOM")
	cleanCmd.Flags().StringVar(&cleanSheetOut, "sheet-out", "", "XLSX output: sheet name (default Sheet1)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "print a preview instead of writing")
	cleanCmd.Flags().BoolVar(&cleanShowLog, "log", false, "print the action log")
	cleanCmd.Flags().StringVar(&cleanSaveRecipe, "save-recipe", "", "write the combined steps to a YAML recipe after a successful run")
}
