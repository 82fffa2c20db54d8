// Package shell is the interactive line-oriented driver over one edit session.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	"github.com/KaramelBytes/wrangle-cli/internal/recipe"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/tableio"
	"github.com/KaramelBytes/wrangle-cli/internal/transform"
)

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// Options configures a Shell.
type Options struct {
	Read          tableio.Options
	Write         tableio.WriteOptions
	PreviewRows   int
	HistogramBins int
	BarTop        int
	// Prompt is printed before each line; empty disables it.
	Prompt string
}

// Shell reads commands and applies them to a session.
type Shell struct {
	sess *session.Session
	out  io.Writer
	opt  Options
}

// New creates a shell writing to out.
func New(sess *session.Session, out io.Writer, opt Options) *Shell {
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = 10
	}
	return &Shell{sess: sess, out: out, opt: opt}
}

// Run reads commands from in until EOF or quit. Command errors are printed
// and never end the loop; only a read error is returned.
func (sh *Shell) Run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if sh.opt.Prompt != "" {
			fmt.Fprint(sh.out, sh.opt.Prompt)
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := sh.Exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(sh.out, "✗ %s\n", session.FormatError(err))
		}
	}
	return sc.Err()
}

// Exec runs a single command line.
func (sh *Shell) Exec(line string) error {
	fields, err := recipe.SplitFields(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	slog.Debug("shell command", slog.String("cmd", cmd), slog.Int("args", len(args)))
	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprint(sh.out, helpText)
		return nil
	case "load", "open":
		return sh.load(args)
	case "show", "head", "preview":
		return sh.show(args)
	case "log":
		for _, e := range sh.sess.Log() {
			fmt.Fprintln(sh.out, e.String())
		}
		return nil
	case "status":
		return sh.status()
	case "describe":
		return sh.describe(args)
	case "plot":
		return sh.plot(args)
	case "export", "save":
		return sh.export(args)
	case "run":
		return sh.runRecipe(args)
	case "undo":
		if _, err := sh.sess.Undo(); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Performed UNDO (%s)\n", shape(sh.sess))
		return nil
	case "redo":
		if _, err := sh.sess.Redo(); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Performed REDO (%s)\n", shape(sh.sess))
		return nil
	}

	st, err := recipe.ParseStep(line)
	if err != nil {
		return err
	}
	op, err := st.Operation()
	if err != nil {
		return err
	}
	msg, err := sh.sess.Apply(op)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, msg)
	return nil
}

func (sh *Shell) load(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: load <file> [sheet]", transform.ErrInvalidInput)
	}
	opt := sh.opt.Read
	if len(args) > 1 {
		if i, err := strconv.Atoi(args[1]); err == nil {
			opt.SheetIndex, opt.SheetName = i, ""
		} else {
			opt.SheetName = args[1]
		}
	}
	t, err := tableio.ReadFile(args[0], opt)
	if err != nil {
		return err
	}
	msg, err := sh.sess.Load(t, filepath.Base(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, msg)
	return nil
}

func (sh *Shell) current() (*sessionView, error) {
	t := sh.sess.Current()
	if t == nil {
		return nil, session.ErrNoDataLoaded
	}
	return &sessionView{t: t, name: sh.sess.Source()}, nil
}

func (sh *Shell) show(args []string) error {
	v, err := sh.current()
	if err != nil {
		return err
	}
	n := sh.opt.PreviewRows
	if len(args) > 0 {
		if n, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("%w: row count must be a number", transform.ErrInvalidInput)
		}
	}
	fmt.Fprint(sh.out, analysis.Preview(v.t, n))
	return nil
}

func (sh *Shell) status() error {
	v, err := sh.current()
	if err != nil {
		fmt.Fprintln(sh.out, "No data loaded.")
		return nil
	}
	fmt.Fprintf(sh.out, "Source: %s\n", v.name)
	fmt.Fprintf(sh.out, "Shape: %s\n", shape(sh.sess))
	fmt.Fprintf(sh.out, "History: %s\n", sh.sess.HistoryState())
	if limit := sh.sess.HistoryLimit(); limit > 0 {
		fmt.Fprintf(sh.out, "Undo limit: %d\n", limit)
	} else {
		fmt.Fprintln(sh.out, "Undo limit: unlimited")
	}
	for _, name := range v.t.Names() {
		c, _ := v.t.Column(name)
		fmt.Fprintf(sh.out, "  %s (%s, %d missing)\n", name, c.Kind(), c.NullCount())
	}
	return nil
}

func (sh *Shell) describe(args []string) error {
	v, err := sh.current()
	if err != nil {
		return err
	}
	opt := analysis.DefaultOptions()
	for _, a := range args {
		switch {
		case a == "corr" || a == "correlations":
			opt.Correlations = true
		case strings.HasPrefix(a, "by="):
			opt.GroupBy = strings.Split(strings.TrimPrefix(a, "by="), ",")
		default:
			return fmt.Errorf("%w: usage: describe [corr] [by=col1,col2]", transform.ErrInvalidInput)
		}
	}
	rep, err := analysis.Describe(v.t, v.name, opt)
	if err != nil {
		return err
	}
	fmt.Fprint(sh.out, rep.Markdown())
	return nil
}

func (sh *Shell) plot(args []string) error {
	v, err := sh.current()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: plot hist|bar <column> [n]", transform.ErrInvalidInput)
	}
	n := 0
	if len(args) > 2 {
		if n, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("%w: %q is not a number", transform.ErrInvalidInput, args[2])
		}
	}
	var ch *analysis.Chart
	switch strings.ToLower(args[0]) {
	case "hist", "histogram":
		if n == 0 {
			n = sh.opt.HistogramBins
		}
		ch, err = analysis.Histogram(v.t, args[1], n)
	case "bar", "counts":
		if n == 0 {
			n = sh.opt.BarTop
		}
		ch, err = analysis.BarChart(v.t, args[1], n)
	default:
		return fmt.Errorf("%w: unknown plot %q (use hist or bar)", transform.ErrInvalidInput, args[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprint(sh.out, ch.Render(0))
	return nil
}

func (sh *Shell) export(args []string) error {
	v, err := sh.current()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: export <file.csv|file.xlsx>", transform.ErrInvalidInput)
	}
	if err := tableio.WriteFile(v.t, args[0], sh.opt.Write); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Exported %s to %s.\n", shape(sh.sess), args[0])
	return nil
}

func (sh *Shell) runRecipe(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: run <recipe.yaml>", transform.ErrInvalidInput)
	}
	r, err := recipe.Load(args[0])
	if err != nil {
		return err
	}
	_, err = recipe.Run(sh.sess, r, func(i int, st recipe.Step, msg string) {
		fmt.Fprintf(sh.out, "[%d/%d] %s: %s\n", i+1, len(r.Steps), st, msg)
	})
	return err
}

type sessionView struct {
	t    *table.Table
	name string
}

func shape(sess *session.Session) string {
	t := sess.Current()
	if t == nil {
		return "no data"
	}
	return fmt.Sprintf("%d rows, %d columns", t.NumRows(), t.NumCols())
}

const helpText = `Commands:
  load <file> [sheet]              load a CSV/TSV/XLSX file (clears history)
  dedupe                           remove duplicate rows
  missing <col> <strategy> [value] drop | mean | median | mode | fill <value>
  filter <col> <op> [value]        ==, !=, >, <, >=, <=, contains, is null, is not null
  undo | redo                      step through history
  run <recipe.yaml>                apply a recipe, stopping at the first failure
  show [n]                         preview the first n rows
  status                           source, shape, history and columns
  log                              action log
  describe [corr] [by=col]         column statistics
  plot hist|bar <col> [n]          text histogram or value counts
  export <file>                    write .csv, .tsv or .xlsx
  help | quit
`
