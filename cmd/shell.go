package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/shell"
)

var (
	shRead     readFlags
	shNoPrompt bool
	shBOM      bool
)

var shellCmd = &cobra.Command{
	Use:   "shell [file]",
	Short: "Start an interactive editing session",
	Long: `Start an interactive session reading commands from stdin. Load a file, then
dedupe, fill or drop missing values, filter rows, undo and redo, inspect the action
log and export. Type 'help' for the command list. Errors are reported and the
session keeps running.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		readOpt, err := shRead.options(c)
		if err != nil {
			return err
		}
		opt := shell.Options{
			Read:          readOpt,
			Write:         writeOptions(c, cmd, shBOM, ""),
			PreviewRows:   c.PreviewRows,
			HistogramBins: c.HistogramBins,
			BarTop:        c.BarTop,
			Prompt:        "wrangle> ",
		}
		if shNoPrompt {
			opt.Prompt = ""
		}
		out := cmd.OutOrStdout()
		sh := shell.New(newSession(c), out, opt)
		if len(args) == 1 {
			if err := sh.Exec("load " + quoteArg(args[0])); err != nil {
				return err
			}
		}
		if opt.Prompt != "" {
			fmt.Fprintln(out, "Type 'help' for commands, 'quit' to leave.")
		}
		return sh.Run(cmd.InOrStdin())
	},
}

// quoteArg wraps a path so the shell's field splitter keeps it whole.
func quoteArg(s string) string {
	return fmt.Sprintf("%q", s)
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shRead.register(shellCmd)
	shellCmd.Flags().BoolVar(&shNoPrompt, "no-prompt", false, "do not print a prompt (for piped input)")
	shellCmd.Flags().BoolVar(&shBOM, "bom", false, "prefix exported CSV with a UTF-8 BOM")
}
