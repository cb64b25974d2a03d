package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/spf13/cobra"
)

// StatsResult is the JSON form of the stats command.
type StatsResult struct {
	Database string `json:"database"`
	Schema   string `json:"scheme,omitempty"`
	report.Stats
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <report>",
		Short: "Show summary counts of a report",
		Long: `Show how many tables, columns and records a report describes, and how
the columns split across the numeric, character, date and time, and other
groups.`,
		Example: `  # Summary of a report
  dbexplorer stats shop.json

  # As JSON
  dbexplorer stats shop.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, input string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	doc, err := cmdCtx.LoadReport(input)
	if err != nil {
		return err
	}
	stats := report.Summarize(doc)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(StatsResult{Database: doc.Database, Schema: doc.Schema, Stats: stats})
	}

	title := doc.Database
	if title == "" {
		title = input
	}
	r.Header(1, title)
	if doc.Schema != "" {
		r.KeyValue("Schema", doc.Schema)
	}
	r.KeyValue("Tables", fmt.Sprintf("%d (%d empty)", stats.Tables, stats.EmptyTables))
	r.KeyValue("Columns", fmt.Sprint(stats.Columns))
	r.KeyValue("Records", fmt.Sprint(stats.Records))
	for _, g := range report.Groups {
		r.KeyValue(view.GroupTitle(g), fmt.Sprint(stats.ByGroup[g]))
	}
	return nil
}
