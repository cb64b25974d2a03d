package commands

import (
	"errors"

	"github.com/leapstack-labs/dbexplorer/internal/tui"
	"github.com/spf13/cobra"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse <report> [query]",
		Short: "Browse a report interactively in the terminal",
		Long: `Open an interactive browser for a report.

Type to filter, press tab to switch between table, column and value search,
ctrl+o to show only the matching columns in column search, and enter to
expand or collapse the selected table. Press esc to quit.`,
		Example: `  # Browse every table
  dbexplorer browse shop.json

  # Start with a column search
  dbexplorer browse shop.json email --kind column`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, args[0], queryArg(args, 1))
		},
	}

	addSearchFlags(cmd)

	return cmd
}

func runBrowse(cmd *cobra.Command, input, query string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if !r.IsTTY() {
		return errors.New("browse needs an interactive terminal\nHint: use 'dbexplorer search' for scripted output")
	}

	doc, err := cmdCtx.LoadReport(input)
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), doc, tui.Options{
		Query:     query,
		Kind:      cmdCtx.Cfg.Search.Kind,
		MatchOnly: cmdCtx.Cfg.Search.MatchOnly,
		Styles:    r.ViewStyles(),
	})
}
