package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbexplorer/internal/cli/config"
	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// getConfig returns the configuration loaded by the root command, or loads
// it from the command's own flags when the command runs on its own.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

// LoadReport reads and normalizes the report at path.
func (c *CommandContext) LoadReport(path string) (*report.Document, error) {
	doc, err := report.LoadFile(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded report", "path", path, "database", doc.Database, "tables", len(doc.Tables))
	return doc, nil
}

// Filter applies the configured search to doc and renders the result.
func (c *CommandContext) Filter(doc *report.Document, query string) ([]*report.Table, *view.Tree, error) {
	kind := c.Cfg.Search.Kind
	tables, err := search.Filter(kind, query, doc.Tables)
	if err != nil {
		return nil, nil, fmt.Errorf("search failed: %w", err)
	}
	tree, err := view.Render(tables, view.Options{
		Kind:      kind,
		Query:     query,
		MatchOnly: c.Cfg.Search.MatchOnly,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("render failed: %w", err)
	}
	c.Logger.Debug("filtered report", "kind", kind, "query", query, "matches", len(tables))
	return tables, tree, nil
}

// addSearchFlags registers the filter flags shared by search, export and browse.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "Search kind (table|column|value)")
	cmd.Flags().Bool("match-only", false, "With --kind column, show only the matching columns")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, len(search.Kinds))
		for i, k := range search.Kinds {
			kinds[i] = k.String()
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})
}

// queryArg returns the optional query argument at index i.
func queryArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
