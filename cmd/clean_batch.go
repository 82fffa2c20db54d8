package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/recipe"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/tableio"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

var (
	cbRead            readFlags
	cbRecipePath      string
	cbSteps           []string
	cbOutDir          string
	cbFormat          string
	cbBOM             bool
	cbSheetOut        string
	cbQuiet           bool
	cbContinueOnError bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Apply one cleaning recipe to many CSV/TSV/XLSX files with progress",
	Long: `Apply the same recipe to every input file. Arguments may be glob patterns; matches
are de-duplicated and processed in sorted order. Each file gets its own session, and
outputs are written as <name>.clean<ext> in --out-dir (default: next to each input).
Existing outputs are never overwritten: a __2, __3, ... suffix is added instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c := currentConfig()
		r, err := buildRecipe(cbRecipePath, cbSteps)
		if err != nil {
			return err
		}
		ext, err := extFor(cbFormat)
		if err != nil {
			return err
		}
		opt, err := cbRead.options(c)
		if err != nil {
			return err
		}
		if cbOutDir != "" {
			if err := utils.EnsureDir(cbOutDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		runID := uuid.NewString()
		logger := slog.Default().With(slog.String("run_id", runID))
		logger.Info("batch started", slog.Int("files", len(files)), slog.Int("steps", len(r.Steps)))

		out := cmd.OutOrStdout()
		claimed := map[string]struct{}{}
		total := len(files)
		var failed int
		for i, path := range files {
			if !cbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			dest, err := cleanOne(cmd, r, path, ext, opt, claimed)
			if err != nil {
				logger.Warn("file failed", slog.String("file", path), slog.Any("error", err))
				if !cbContinueOnError {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				failed++
				fmt.Fprintf(out, "✗ %s: %s\n", filepath.Base(path), session.FormatError(err))
				continue
			}
			logger.Debug("file cleaned", slog.String("file", path), slog.String("output", dest))
		}
		logger.Info("batch finished", slog.Int("files", total), slog.Int("failed", failed))
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed (run %s)", failed, total, runID)
		}
		if !cbQuiet {
			fmt.Fprintf(out, "✓ Cleaned %d file(s) (run %s)\n", total, runID)
		}
		return nil
	},
}

// cleanOne runs the recipe over a single file in its own session and
// returns the path written.
func cleanOne(cmd *cobra.Command, r *recipe.Recipe, path, ext string, opt tableio.Options, claimed map[string]struct{}) (string, error) {
	c := currentConfig()
	out := cmd.OutOrStdout()
	if cbQuiet {
		out = io.Discard
	}
	sess, msg, err := loadSession(c, path, opt)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "  %s\n", msg)
	if err := applyRecipe(out, sess, r); err != nil {
		return "", err
	}

	want := cleanOutputPath(cbOutDir, path, ext)
	dest := uniqueOutputPath(want, claimed)
	if dest != want {
		fmt.Fprintf(out, "⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(dest))
	}
	claimed[dest] = struct{}{}
	if err := tableio.WriteFile(sess.Current(), dest, writeOptions(c, cmd, cbBOM, cbSheetOut)); err != nil {
		return "", err
	}
	t := sess.Current()
	fmt.Fprintf(out, "  ✓ Wrote %d rows, %d columns to %s\n", t.NumRows(), t.NumCols(), dest)
	return dest, nil
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cbRead.register(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVarP(&cbRecipePath, "recipe", "r", "", "YAML recipe file")
	cleanBatchCmd.Flags().StringArrayVarP(&cbSteps, "step", "s", nil, "inline step (repeatable, runs after --recipe)")
	cleanBatchCmd.Flags().StringVar(&cbOutDir, "out-dir", "", "directory for cleaned files (default: next to each input)")
	cleanBatchCmd.Flags().StringVar(&cbFormat, "format", "same", "output format: same|csv|tsv|xlsx")
	cleanBatchCmd.Flags().BoolVar(&cbBOM, "bom", false, "prefix CSV output with a UTF-8 BOM")
	cleanBatchCmd.Flags().StringVar(&cbSheetOut, "sheet-out", "", "XLSX output: sheet name (default Sheet1)")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress and non-essential output")
	cleanBatchCmd.Flags().BoolVar(&cbContinueOnError, "continue-on-error", false, "keep going when a file fails and report failures at the end")
}
