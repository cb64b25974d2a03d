package commands

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/extract"
	"github.com/leapstack-labs/dbexplorer/internal/page"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/spf13/cobra"
)

// ExtractResult describes a finished extraction.
type ExtractResult struct {
	Report string       `json:"report"`
	Page   string       `json:"page,omitempty"`
	Stats  report.Stats `json:"stats"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [database]",
		Short: "Compute a schema report from a database file",
		Long: `Read every table of a SQLite or DuckDB database and write a report with
per-column statistics.

Numeric columns get their minimum, maximum and mean, date and time columns
their range, and text columns their most common values. --extended adds null
counts, distinct counts and quartiles. The report is written as JSON and
compressed when the output name ends in .gz or .zst.`,
		Example: `  # Extract a SQLite database to shop.json
  dbexplorer extract shop.db

  # Extract a DuckDB schema with extended statistics
  dbexplorer extract warehouse.duckdb --type duckdb --schema staging --extended

  # Write a compressed report and the HTML page next to it
  dbexplorer extract shop.db -O reports/shop.json.zst --html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args)
		},
	}

	cmd.Flags().String("type", "", "Database type ("+strings.Join(adapter.ListAdapters(), "|")+")")
	cmd.Flags().String("database", "", "Path to the database file (alternative to the argument)")
	cmd.Flags().String("schema", "", "Schema to read (default: the adapter's default schema)")
	cmd.Flags().Bool("read-only", false, "Open the database read-only")
	cmd.Flags().Bool("extended", false, "Add null, distinct and quantile statistics")
	cmd.Flags().Int("top", 0, "Number of most common values per text column")
	cmd.Flags().Int("max-text-length", 0, "Skip value statistics for longer text columns")
	cmd.Flags().Int("workers", 0, "Number of tables read concurrently")
	cmd.Flags().StringP("out", "O", "", "Report path (default: <database name>.json)")
	cmd.Flags().Bool("html", false, "Also build the HTML page")
	cmd.Flags().Bool("open", false, "Open the HTML page in the browser")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	dbPath := queryArg(args, 0)
	if dbPath == "" {
		dbPath = cfg.Extract.Database
	}
	if dbPath == "" {
		return fmt.Errorf("no database given\nHint: pass a path or set extract.database in dbexplorer.yaml")
	}

	dbCfg := adapter.Config{
		Type:    cfg.Extract.Type,
		Path:    dbPath,
		Schema:  cfg.Extract.Schema,
		Options: map[string]string{"read_only": strconv.FormatBool(cfg.Extract.ReadOnly)},
	}
	db, err := adapter.NewAdapter(dbCfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, dbCfg); err != nil {
		return fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	doc, err := extract.New(db, cfg.ExtractOptions(), cmdCtx.Logger).Extract(ctx)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = doc.Database + ".json"
	}
	if err := report.WriteFile(out, doc); err != nil {
		return err
	}

	result := ExtractResult{Report: out, Stats: report.Summarize(doc)}

	html, _ := cmd.Flags().GetBool("html")
	if html || cfg.Page.Open {
		result.Page = page.OutputPath(out)
		if err := page.NewGenerator(cfg.PageOptions(), cmdCtx.Logger).BuildFile(ctx, doc, result.Page); err != nil {
			return err
		}
		openPage(r, cfg.Page.Open, result.Page)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Header(1, "Extracted "+doc.Database)
		r.KeyValue("Report", out)
		if result.Page != "" {
			r.KeyValue("Page", result.Page)
		}
		r.KeyValue("Contents", result.Stats.Summary())
	default:
		r.Success(fmt.Sprintf("Wrote %s (%s)", filepath.ToSlash(out), result.Stats.Summary()))
		if result.Page != "" {
			r.Success("Wrote " + filepath.ToSlash(result.Page))
		}
	}
	return nil
}
