// Package config provides configuration management for the dbexplorer CLI.
//
// Values are layered from built-in defaults, a dbexplorer.yaml file,
// DBEXPLORER_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"time"

	"github.com/leapstack-labs/dbexplorer/internal/extract"
	"github.com/leapstack-labs/dbexplorer/internal/page"
	"github.com/leapstack-labs/dbexplorer/internal/search"
)

// Default configuration values.
const (
	DefaultOutput   = "auto"
	DefaultLogLevel = "info"
	DefaultAdapter  = "sqlite"
)

// Config holds the complete CLI configuration.
type Config struct {
	Output   string        `koanf:"output" yaml:"output" json:"output"`
	Verbose  bool          `koanf:"verbose" yaml:"verbose" json:"verbose"`
	LogLevel string        `koanf:"log_level" yaml:"log_level" json:"log_level"`
	Search   SearchConfig  `koanf:"search" yaml:"search" json:"search"`
	Page     PageConfig    `koanf:"page" yaml:"page" json:"page"`
	Extract  ExtractConfig `koanf:"extract" yaml:"extract" json:"extract"`
}

// SearchConfig holds the initial filter controls.
type SearchConfig struct {
	Kind      search.Kind `koanf:"kind" yaml:"kind" json:"kind"`
	MatchOnly bool        `koanf:"match_only" yaml:"match_only" json:"match_only"`
}

// PageConfig configures HTML page generation.
type PageConfig struct {
	Title         string        `koanf:"title" yaml:"title" json:"title"`
	Minify        bool          `koanf:"minify" yaml:"minify" json:"minify"`
	Open          bool          `koanf:"open" yaml:"open" json:"open"`
	Strict        bool          `koanf:"strict" yaml:"strict" json:"strict"`
	WatchDebounce time.Duration `koanf:"watch_debounce" yaml:"-" json:"watch_debounce"`
}

// MarshalYAML writes the debounce as a duration string.
func (p PageConfig) MarshalYAML() (any, error) {
	type plain PageConfig
	return struct {
		plain         `yaml:",inline"`
		WatchDebounce string `yaml:"watch_debounce"`
	}{plain(p), p.WatchDebounce.String()}, nil
}

// ExtractConfig configures the report producer.
type ExtractConfig struct {
	Type          string `koanf:"type" yaml:"type" json:"type"`
	Database      string `koanf:"database" yaml:"database" json:"database"`
	Schema        string `koanf:"schema" yaml:"schema" json:"schema"`
	ReadOnly      bool   `koanf:"read_only" yaml:"read_only" json:"read_only"`
	Extended      bool   `koanf:"extended" yaml:"extended" json:"extended"`
	Top           int    `koanf:"top" yaml:"top" json:"top"`
	MaxTextLength int    `koanf:"max_text_length" yaml:"max_text_length" json:"max_text_length"`
	Workers       int    `koanf:"workers" yaml:"workers" json:"workers"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	opts := extract.DefaultOptions()
	return &Config{
		Output:   DefaultOutput,
		LogLevel: DefaultLogLevel,
		Search:   SearchConfig{Kind: search.KindTable},
		Page: PageConfig{
			Minify:        true,
			WatchDebounce: page.DefaultDebounce,
		},
		Extract: ExtractConfig{
			Type:          DefaultAdapter,
			Top:           opts.Top,
			MaxTextLength: opts.MaxTextLength,
			Workers:       opts.Workers,
		},
	}
}

// ExtractOptions returns the extractor options.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		Schema:        c.Extract.Schema,
		Extended:      c.Extract.Extended,
		Top:           c.Extract.Top,
		MaxTextLength: c.Extract.MaxTextLength,
		Workers:       c.Extract.Workers,
	}
}

// PageOptions returns the page generator options.
func (c *Config) PageOptions() page.Options {
	return page.Options{
		Title:     c.Page.Title,
		Minify:    c.Page.Minify,
		Strict:    c.Page.Strict,
		Kind:      c.Search.Kind,
		MatchOnly: c.Search.MatchOnly,
	}
}
