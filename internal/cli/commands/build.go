package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/page"
	"github.com/spf13/cobra"
)

// BuildResult describes a written page.
type BuildResult struct {
	Report string `json:"report"`
	Page   string `json:"page"`
	Tables int    `json:"tables"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <report> [query]",
		Short: "Build the HTML viewer for a report",
		Long: `Write a single self-contained HTML page for a report.

The page embeds the report, its styles and a small script, so it can be
opened from disk or attached to a ticket. Tables can be filtered by name,
column name or value and expanded in place.

A query, with --kind and --match-only, sets the initial search of the page.
With --watch the page is rebuilt whenever the report file changes.`,
		Example: `  # Write shop.html next to the report
  dbexplorer build shop.json

  # Choose the output path and title
  dbexplorer build shop.json -O site/index.html --title "Shop database"

  # Rebuild on every change and open the page once
  dbexplorer build shop.json --watch --open

  # Open on a column search for "email"
  dbexplorer build shop.json email --kind column --match-only

  # Fail when a column has no name
  dbexplorer build shop.json --strict`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], queryArg(args, 1))
		},
	}

	cmd.Flags().StringP("out", "O", "", "Page path (default: <report>.html)")
	cmd.Flags().Bool("watch", false, "Rebuild when the report changes")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a rebuild in watch mode")
	cmd.Flags().Bool("open", false, "Open the page in the browser")
	cmd.Flags().Bool("strict", false, "Reject reports with unnamed columns")
	cmd.Flags().String("title", "", "Page title")
	cmd.Flags().Bool("no-minify", false, "Embed the styles and script unminified")
	addSearchFlags(cmd)

	return cmd
}

func runBuild(cmd *cobra.Command, input, query string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = page.OutputPath(input)
	}

	opts := cfg.PageOptions()
	opts.Query = query
	gen := page.NewGenerator(opts, cmdCtx.Logger)
	w := page.NewWatcher(gen, input, out, cfg.Page.WatchDebounce)

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		w.OnBuild = func(err error) {
			if err != nil {
				r.StatusLine("build", "failed", err.Error())
				return
			}
			r.StatusLine("build", "ok", out)
		}
		if err := w.Build(ctx); err != nil {
			return fmt.Errorf("initial build failed: %w", err)
		}
		r.StatusLine("build", "ok", out)
		openPage(r, cfg.Page.Open, out)

		r.Muted(fmt.Sprintf("Watching %s (press Ctrl+C to stop)", input))
		return w.Watch(ctx)
	}

	doc, err := cmdCtx.LoadReport(input)
	if err != nil {
		return err
	}
	if err := gen.BuildFile(ctx, doc, out); err != nil {
		return err
	}
	openPage(r, cfg.Page.Open, out)

	result := BuildResult{Report: input, Page: out, Tables: len(doc.Tables)}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Header(1, "Built "+out)
		r.KeyValue("Report", input)
		r.KeyValue("Tables", fmt.Sprint(result.Tables))
	default:
		r.Success(fmt.Sprintf("Wrote %s (%d tables)", out, result.Tables))
	}
	return nil
}

// openPage opens path in the browser when requested. A failure to open is
// reported as a warning.
func openPage(r *output.Renderer, open bool, path string) {
	if !open {
		return
	}
	if err := page.OpenInBrowser(path); err != nil {
		r.Warning(err.Error())
	}
}
