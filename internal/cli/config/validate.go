package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbexplorer/internal/adapter"
	"github.com/leapstack-labs/dbexplorer/internal/cli/output"
)

// Validate checks if the configuration is valid. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if !output.OutputMode(c.Output).Valid() {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", output.Modes, c.Output))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if !c.Search.Kind.Valid() {
		errs = append(errs, fmt.Errorf("search.kind %q is not a search kind", c.Search.Kind))
	}
	if c.Page.WatchDebounce <= 0 {
		errs = append(errs, fmt.Errorf("page.watch_debounce must be positive, got %s", c.Page.WatchDebounce))
	}
	if !adapter.IsRegistered(c.Extract.Type) {
		errs = append(errs, &adapter.UnknownAdapterError{Type: c.Extract.Type, Available: adapter.ListAdapters()})
	}
	if c.Extract.Top <= 0 {
		errs = append(errs, fmt.Errorf("extract.top must be positive, got %d", c.Extract.Top))
	}
	if c.Extract.MaxTextLength <= 0 {
		errs = append(errs, fmt.Errorf("extract.max_text_length must be positive, got %d", c.Extract.MaxTextLength))
	}
	if c.Extract.Workers <= 0 {
		errs = append(errs, fmt.Errorf("extract.workers must be positive, got %d", c.Extract.Workers))
	}

	return errors.Join(errs...)
}
