package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/wrangle-cli/internal/config"
	"github.com/KaramelBytes/wrangle-cli/internal/recipe"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/tableio"
	"github.com/spf13/cobra"
)

// readFlags are the input flags shared by every command that loads a file.
type readFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
}

func (f *readFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (default sniffed)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.' | 'comma'")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ',' | '.' | 'space'")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read (default first sheet)")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options layers the flags over the configuration.
func (f *readFlags) options(c *cfgpkg.Global) (tableio.Options, error) {
	opt := tableio.DefaultOptions()
	delim, dec, thou := c.Delimiter, c.DecimalSeparator, c.ThousandsSeparator
	if f.delimiter != "" {
		delim = f.delimiter
	}
	if f.decimal != "" {
		dec = f.decimal
	}
	if f.thousands != "" {
		thou = f.thousands
	}
	var err error
	if opt.Delimiter, err = cfgpkg.ParseDelimiter(delim); err != nil {
		return opt, fmt.Errorf("--delimiter: %w", err)
	}
	if opt.Parse.DecimalSeparator, err = cfgpkg.ParseDecimal(dec); err != nil {
		return opt, fmt.Errorf("--decimal: %w", err)
	}
	if opt.Parse.ThousandsSeparator, err = cfgpkg.ParseThousands(thou); err != nil {
		return opt, fmt.Errorf("--thousands: %w", err)
	}
	if len(c.NAValues) > 0 {
		opt.Parse.NAValues = c.NAValues
	}
	opt.SheetName, opt.SheetIndex = c.SheetName, c.SheetIndex
	if f.sheetName != "" {
		opt.SheetName = f.sheetName
	}
	if f.sheetIndex > 0 {
		opt.SheetIndex, opt.SheetName = f.sheetIndex, f.sheetName
	}
	return opt, nil
}

// newSession builds a session honoring the configured history limit.
func newSession(c *cfgpkg.Global) *session.Session {
	return session.New(session.Options{HistoryLimit: c.HistoryLimit, Logger: slog.Default()})
}

// loadSession reads path into a fresh session.
func loadSession(c *cfgpkg.Global, path string, opt tableio.Options) (*session.Session, string, error) {
	t, err := tableio.ReadFile(path, opt)
	if err != nil {
		return nil, "", err
	}
	sess := newSession(c)
	msg, err := sess.Load(t, filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	return sess, msg, nil
}

// loadTable reads path without a session, for read-only commands.
func loadTable(f *readFlags, path string) (*table.Table, error) {
	opt, err := f.options(currentConfig())
	if err != nil {
		return nil, err
	}
	return tableio.ReadFile(path, opt)
}

// buildRecipe combines a recipe file with inline steps; file steps run first.
func buildRecipe(path string, steps []string) (*recipe.Recipe, error) {
	r := &recipe.Recipe{}
	if path != "" {
		loaded, err := recipe.Load(path)
		if err != nil {
			return nil, err
		}
		r = loaded
	}
	if len(steps) > 0 {
		inline, err := recipe.FromLines(steps)
		if err != nil {
			return nil, err
		}
		r.Steps = append(r.Steps, inline.Steps...)
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("%w: pass --recipe or at least one --step", recipe.ErrEmptyRecipe)
	}
	return r, nil
}

// expandInputs expands glob patterns, drops duplicates and sorts the result
// for deterministic processing order. Glob matches without a supported
// extension are skipped; paths named literally are kept so reads report them.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, a := range args {
		matches, err := filepath.Glob(a)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", a, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(a); err == nil {
				inputs = append(inputs, a)
			}
			continue
		}
		for _, m := range matches {
			if m == a || tableio.Supported(m) {
				inputs = append(inputs, m)
			}
		}
	}
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(inputs))
	for _, p := range inputs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	sort.Strings(uniq)
	return uniq, nil
}

// cleanOutputPath derives <dir>/<base>.clean<ext> from an input path. An
// empty ext keeps the input's extension.
func cleanOutputPath(dir, input, ext string) string {
	if ext == "" {
		ext = filepath.Ext(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+".clean"+ext)
}

// uniqueOutputPath returns path, or the first free <base>__N variant when
// path exists or was already claimed in this run.
func uniqueOutputPath(path string, claimed map[string]struct{}) string {
	taken := func(p string) bool {
		if _, ok := claimed[p]; ok {
			return true
		}
		_, err := os.Stat(p)
		return err == nil
	}
	if !taken(path) {
		return path
	}
	dir, name := filepath.Split(path)
	stem, suffix := name, ""
	if i := strings.Index(name, ".clean"); i > 0 {
		stem, suffix = name[:i], name[i:]
	} else if ext := filepath.Ext(name); ext != "" {
		stem, suffix = strings.TrimSuffix(name, ext), ext
	}
	for idx := 2; ; idx++ {
		alt := filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, idx, suffix))
		if !taken(alt) {
			return alt
		}
	}
}

// extFor maps an --format value to a file extension.
func extFor(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "same":
		return "", nil
	case "csv":
		return ".csv", nil
	case "tsv":
		return ".tsv", nil
	case "xlsx", "excel":
		return ".xlsx", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use same|csv|tsv|xlsx)", format)
}
