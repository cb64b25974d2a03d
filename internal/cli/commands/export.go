package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/view/htmlview"
	"github.com/leapstack-labs/dbexplorer/internal/view/mdview"
	"github.com/leapstack-labs/dbexplorer/internal/view/xlsxview"
	"github.com/spf13/cobra"
)

// Export formats.
const (
	FormatXLSX     = "xlsx"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

var exportFormats = []string{FormatXLSX, FormatMarkdown, FormatHTML, FormatJSON}

var formatExtensions = map[string]string{
	FormatXLSX:     ".xlsx",
	FormatMarkdown: ".md",
	FormatHTML:     ".html",
	FormatJSON:     ".json",
}

// ExportResult describes a written export.
type ExportResult struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Matches int    `json:"matches"`
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <report> [query]",
		Short: "Write the filtered view of a report to a file",
		Long: `Filter a report and write the result as a spreadsheet, markdown, an HTML
fragment or a smaller report.

The format is taken from --format or, when omitted, from the extension of
--out. xlsx writes one sheet per table with a block per column group.`,
		Example: `  # Spreadsheet of every table
  dbexplorer export shop.json -O shop.xlsx

  # Markdown of the tables with a column named like "price"
  dbexplorer export shop.json price --kind column -O prices.md

  # A report with only the matching tables
  dbexplorer export shop.json order --format json -O orders.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], queryArg(args, 1))
		},
	}

	addSearchFlags(cmd)
	cmd.Flags().String("format", "", "Export format ("+strings.Join(exportFormats, "|")+")")
	cmd.Flags().StringP("out", "O", "", "Output path (default: <report>.<format extension>)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return exportFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// exportTarget resolves the format and output path from the flags.
func exportTarget(input, format, out string) (string, string, error) {
	format = strings.ToLower(format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".xlsx":
			format = FormatXLSX
		case ".md", ".markdown":
			format = FormatMarkdown
		case ".html", ".htm":
			format = FormatHTML
		case ".json", ".gz", ".zst":
			format = FormatJSON
		default:
			format = FormatXLSX
		}
	}
	ext, ok := formatExtensions[format]
	if !ok {
		return "", "", fmt.Errorf("unknown export format %q (expected one of %s)", format, strings.Join(exportFormats, ", "))
	}
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		base = strings.TrimSuffix(base, ".json")
		if format == FormatJSON {
			// never overwrite the input report
			ext = ".filtered" + ext
		}
		out = filepath.Join(filepath.Dir(input), base+ext)
	}
	return format, out, nil
}

func runExport(cmd *cobra.Command, input, query string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	formatFlag, _ := cmd.Flags().GetString("format")
	outFlag, _ := cmd.Flags().GetString("out")
	format, out, err := exportTarget(input, formatFlag, outFlag)
	if err != nil {
		return err
	}

	doc, err := cmdCtx.LoadReport(input)
	if err != nil {
		return err
	}
	tables, tree, err := cmdCtx.Filter(doc, query)
	if err != nil {
		return err
	}

	if err := ensureDir(out); err != nil {
		return err
	}

	switch format {
	case FormatXLSX:
		err = xlsxview.WriteFile(tree, out)
	case FormatMarkdown:
		var md string
		if md, err = mdview.Render(ctx, tree); err == nil {
			err = writeFile(out, md)
		}
	case FormatHTML:
		var html string
		if html, err = htmlview.String(ctx, tree); err == nil {
			err = writeFile(out, html)
		}
	case FormatJSON:
		err = report.WriteFile(out, &report.Document{
			Database: doc.Database,
			Schema:   doc.Schema,
			Tables:   tables,
		})
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	cmdCtx.Logger.Debug("export written", "path", out, "format", format)

	result := ExportResult{Path: out, Format: format, Matches: len(tables)}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		r.Header(1, "Exported "+out)
		r.KeyValue("Format", format)
		r.KeyValue("Tables", fmt.Sprint(result.Matches))
	default:
		r.Success(fmt.Sprintf("Wrote %s (%s)", out, report.Count(result.Matches, "table")))
	}
	return nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { //nolint:gosec // G306: exports are meant to be readable
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
