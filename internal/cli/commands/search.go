package commands

import (
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/leapstack-labs/dbexplorer/internal/view/mdview"
	"github.com/leapstack-labs/dbexplorer/internal/view/textview"
	"github.com/spf13/cobra"
)

// SearchResult is the JSON form of a search.
type SearchResult struct {
	Database  string          `json:"database"`
	Kind      search.Kind     `json:"kind"`
	Query     string          `json:"query"`
	MatchOnly bool            `json:"match_only"`
	Matches   int             `json:"matches"`
	Tables    []*report.Table `json:"tables"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <report> [query]",
		Short: "Filter the tables of a report",
		Long: `Filter the tables of a report and print the matching ones.

The query is matched case-insensitively as a substring of the table name
(--kind table), of any column name (--kind column) or of any statistic value
(--kind value). An empty query keeps every table.

Output adapts to environment:
  - Terminal: one line per table, --expand prints the column tables
  - Piped/Scripted: Markdown with every table expanded
  - --output json: the matching tables in report format`,
		Example: `  # Tables whose name contains "order"
  dbexplorer search shop.json order

  # Tables with a column named like "email", showing only that column
  dbexplorer search shop.json email --kind column --match-only --expand

  # Tables where some statistic mentions "shipped", as JSON
  dbexplorer search shop.json shipped --kind value -o json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], queryArg(args, 1))
		},
	}

	addSearchFlags(cmd)
	cmd.Flags().Bool("expand", false, "Expand every table in text output")

	return cmd
}

func runSearch(cmd *cobra.Command, input, query string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	doc, err := cmdCtx.LoadReport(input)
	if err != nil {
		return err
	}
	tables, tree, err := cmdCtx.Filter(doc, query)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(SearchResult{
			Database:  doc.Database,
			Kind:      cmdCtx.Cfg.Search.Kind,
			Query:     query,
			MatchOnly: cmdCtx.Cfg.Search.MatchOnly,
			Matches:   len(tables),
			Tables:    tables,
		})
	case output.ModeMarkdown:
		md, err := mdview.Render(cmd.Context(), tree)
		if err != nil {
			return err
		}
		r.Println(strings.TrimRight(md, "\n"))
		return nil
	default:
		expand, _ := cmd.Flags().GetBool("expand")
		if !tree.Empty() {
			r.Muted(report.Count(len(tables), "matching table"))
		}
		return textview.New(r.ViewStyles()).Tree(r.Writer(), tree, nil, expand)
	}
}
