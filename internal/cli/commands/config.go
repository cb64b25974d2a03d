package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbexplorer/internal/cli/config"
	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		Long: `Inspect the effective configuration.

Settings come from built-in defaults, dbexplorer.yaml (in the working
directory or a parent), DBEXPLORER_* environment variables and flags, in
increasing order of precedence. Nested keys use a double underscore in
environment variables: DBEXPLORER_EXTRACT__TOP=10.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Example: `  # Show the merged configuration
  dbexplorer config show

  # See what an environment override does
  DBEXPLORER_SEARCH__KIND=column dbexplorer config show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(cmdCtx.Cfg)
	}

	data, err := yaml.Marshal(cmdCtx.Cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if file := config.GetConfigFileUsed(); file != "" {
		r.Muted("# config file: " + file)
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Printf("```yaml\n%s```\n", data)
		return nil
	}
	r.Printf("%s", data)
	return nil
}
