package page

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/dbexplorer/internal/report"
)

// DefaultDebounce is the quiet period before a changed report is rebuilt.
const DefaultDebounce = 100 * time.Millisecond

// Watcher regenerates a page whenever its report file changes.
type Watcher struct {
	gen      *Generator
	input    string
	output   string
	debounce time.Duration

	// OnBuild, if set, is called after every rebuild attempt.
	OnBuild func(err error)

	mu sync.Mutex
}

// NewWatcher creates a Watcher for input, writing to output.
func NewWatcher(gen *Generator, input, output string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		gen:      gen,
		input:    filepath.Clean(input),
		output:   output,
		debounce: debounce,
	}
}

// Build loads the report and writes the page once.
func (w *Watcher) Build(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := report.LoadFile(w.input)
	if err != nil {
		return err
	}
	return w.gen.BuildFile(ctx, doc, w.output)
}

// Run builds the page, then rebuilds on every change to the input file until
// ctx is cancelled. The parent directory is watched so editors that replace
// the file on save are noticed too.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Build(ctx); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	return w.Watch(ctx)
}

// Watch rebuilds the page on every change to the input file until ctx is
// cancelled, without an initial build.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.input)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.input, err)
	}
	w.gen.logger.Info("watching for changes", "input", w.input, "output", w.output)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.input {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				err := w.Build(ctx)
				if err != nil {
					w.gen.logger.Warn("rebuild failed", "error", err)
				} else {
					w.gen.logger.Info("page rebuilt", "output", w.output)
				}
				if w.OnBuild != nil {
					w.OnBuild(err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.gen.logger.Warn("watcher error", "error", err)
		}
	}
}
