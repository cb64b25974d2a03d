package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is the context key of the command logger.
type loggerKey struct{}

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: DBEXPLORER_EXTRACT__TOP sets extract.top.
const EnvPrefix = "DBEXPLORER_"

// maxUpwardSearchLevels bounds the parent directories searched for dbexplorer.yaml.
const maxUpwardSearchLevels = 10

var configNames = []string{"dbexplorer.yaml", "dbexplorer.yml"}

// flagKeys maps command flags to config keys where the names differ.
// Flags not listed map kebab-case to snake_case at the top level.
var flagKeys = map[string]string{
	"kind":            "search.kind",
	"match-only":      "search.match_only",
	"title":           "page.title",
	"open":            "page.open",
	"strict":          "page.strict",
	"debounce":        "page.watch_debounce",
	"type":            "extract.type",
	"database":        "extract.database",
	"schema":          "extract.schema",
	"read-only":       "extract.read_only",
	"extended":        "extract.extended",
	"top":             "extract.top",
	"max-text-length": "extract.max_text_length",
	"workers":         "extract.workers",
}

// topLevelFlags are the flags that map directly onto a top-level key.
var topLevelFlags = map[string]bool{
	"output":    true,
	"verbose":   true,
	"log-level": true,
}

// Loader state shared by the root command and commands run on their own.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile returns explicit when set, else the nearest dbexplorer.yaml.
// Priority: explicit path > dbexplorer.yaml/.yml in the working directory or a parent.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := findProjectRootUpward(cwd)
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// configExistsIn checks if a dbexplorer config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a dbexplorer config file.
// It returns "" when none is found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig forgets the loaded configuration.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// defaults returns the defaults as a flat koanf map.
func defaults() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"output":                  d.Output,
		"verbose":                 d.Verbose,
		"log_level":               d.LogLevel,
		"search.kind":             string(d.Search.Kind),
		"search.match_only":       d.Search.MatchOnly,
		"page.title":              d.Page.Title,
		"page.minify":             d.Page.Minify,
		"page.open":               d.Page.Open,
		"page.strict":             d.Page.Strict,
		"page.watch_debounce":     d.Page.WatchDebounce.String(),
		"extract.type":            d.Extract.Type,
		"extract.database":        d.Extract.Database,
		"extract.schema":          d.Extract.Schema,
		"extract.read_only":       d.Extract.ReadOnly,
		"extract.extended":        d.Extract.Extended,
		"extract.top":             d.Extract.Top,
		"extract.max_text_length": d.Extract.MaxTextLength,
		"extract.workers":         d.Extract.Workers,
	}
}

// flagKey returns the config key and value for a changed flag, or an empty
// key for flags that are not configuration.
func flagKey(flags *pflag.FlagSet, f *pflag.Flag) (string, interface{}) {
	if !f.Changed {
		return "", nil
	}
	// --no-minify is the negation of page.minify.
	if f.Name == "no-minify" {
		v, _ := flags.GetBool("no-minify")
		return "page.minify", !v
	}
	if key, ok := flagKeys[f.Name]; ok {
		return key, posflag.FlagVal(flags, f)
	}
	if topLevelFlags[f.Name] {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}
	return "", nil
}

// envKey transforms DBEXPLORER_EXTRACT__MAX_TEXT_LENGTH into extract.max_text_length.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig builds the configuration from defaults, dbexplorer.yaml,
// DBEXPLORER_* variables and changed flags, later sources winning.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// changed flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return flagKey(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// decode
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the config file of the last load, or "".
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// NewLogger creates the CLI logger. Verbose forces the debug level.
func NewLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if verbose {
		lvl = slog.LevelDebug
	} else if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerKey returns the context key the logger is stored under.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
