// Package page generates a self-contained HTML viewer for a report.
//
// The page embeds the normalized report as JSON, a server-rendered initial
// view, and a small client script that filters and re-renders the cards in
// the browser with the same rules as the view package.
package page

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/leapstack-labs/dbexplorer/internal/view/htmlview"
)

//go:embed static/*
var staticFiles embed.FS

// Bindings are the element ids of the page controls. They are passed to
// both the template and the client script.
type Bindings struct {
	SearchValue        string `json:"searchValue"`
	SearchKind         string `json:"searchKind"`
	MatchOnly          string `json:"matchOnly"`
	MatchOnlyContainer string `json:"matchOnlyContainer"`
	Results            string `json:"results"`
	DatabaseName       string `json:"databaseName"`
}

// DefaultBindings returns the ids used by the bundled template.
func DefaultBindings() Bindings {
	return Bindings{
		SearchValue:        "input-search-value",
		SearchKind:         "input-search-kind",
		MatchOnly:          "input-match-only",
		MatchOnlyContainer: "match-only-container",
		Results:            "results",
		DatabaseName:       "database-name",
	}
}

// Options configure page generation.
type Options struct {
	Title     string
	Minify    bool
	Strict    bool // reject reports with unnamed columns
	Bindings  Bindings
	Kind      search.Kind // initially selected search kind
	Query     string      // initial search value
	MatchOnly bool
}

// Manifest is the summary shown in the page header.
type Manifest struct {
	Database    string       `json:"database"`
	Schema      string       `json:"scheme,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Stats       report.Stats `json:"stats"`
}

// clientConfig is handed to the client script.
type clientConfig struct {
	Bindings  Bindings          `json:"bindings"`
	Report    *report.Document  `json:"report"`
	CardIDs   map[string]string `json:"cardIds"`
	NoMatches string            `json:"noMatches"`
	Manifest  Manifest          `json:"manifest"`
}

type templateData struct {
	Title     string
	Database  string
	Summary   string
	Bindings  Bindings
	Kinds     []search.Kind
	Kind      search.Kind
	Query     string
	MatchOnly bool
	CSS       template.CSS
	JS        template.JS
	Config    template.JS
	Initial   template.HTML
}

// Generator renders report pages.
type Generator struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	assetsOnce sync.Once
	assets     *Assets
	assetsErr  error
}

// NewGenerator creates a Generator. Zero-valued options fall back to
// DefaultBindings and the table search kind.
func NewGenerator(opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Bindings == (Bindings{}) {
		opts.Bindings = DefaultBindings()
	}
	if !opts.Kind.Valid() {
		opts.Kind = search.KindTable
	}
	return &Generator{opts: opts, logger: logger, now: time.Now}
}

// Render writes the page for doc to w.
func (g *Generator) Render(ctx context.Context, doc *report.Document, w io.Writer) error {
	if g.opts.Strict {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("report validation failed: %w", err)
		}
	}

	assets, err := g.bundledAssets()
	if err != nil {
		return err
	}

	tables, err := search.Filter(g.opts.Kind, g.opts.Query, doc.Tables)
	if err != nil {
		return fmt.Errorf("failed to filter initial view: %w", err)
	}
	tree, err := view.Render(tables, view.Options{Kind: g.opts.Kind, Query: g.opts.Query, MatchOnly: g.opts.MatchOnly})
	if err != nil {
		return fmt.Errorf("failed to render initial view: %w", err)
	}
	initial, err := templ.ToGoHTML(ctx, htmlview.Tree(tree))
	if err != nil {
		return fmt.Errorf("failed to render initial view: %w", err)
	}

	manifest := g.manifest(doc)
	cfg := clientConfig{
		Bindings:  g.opts.Bindings,
		Report:    doc,
		CardIDs:   make(map[string]string, len(doc.Tables)),
		NoMatches: view.NoMatchesText,
		Manifest:  manifest,
	}
	for _, t := range doc.Tables {
		cfg.CardIDs[t.Name] = view.CardID(t.Name)
	}
	// json.Marshal escapes <, > and & so the payload cannot close the script.
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmpl, err := template.New("page").ParseFS(staticFiles, "static/page.html.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	data := templateData{
		Title:     g.title(doc),
		Database:  doc.Database,
		Summary:   manifest.Stats.Summary(),
		Bindings:  g.opts.Bindings,
		Kinds:     search.Kinds,
		Kind:      g.opts.Kind,
		Query:     g.opts.Query,
		MatchOnly: g.opts.MatchOnly,
		CSS:       template.CSS(assets.CSS), //nolint:gosec // G203: embedded asset
		JS:        template.JS(assets.JS),   //nolint:gosec // G203: embedded asset
		Config:    template.JS(cfgJSON),     //nolint:gosec // G203: HTML-escaped JSON
		Initial:   initial,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page.html.tmpl", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// BuildFile renders the page for doc into path. The file is written to a
// temporary sibling first and renamed into place.
func (g *Generator) BuildFile(ctx context.Context, doc *report.Document, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := g.Render(ctx, doc, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil { //nolint:gosec // G302: page is meant to be readable
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	g.logger.Debug("page written", "path", path, "tables", len(doc.Tables))
	return nil
}

func (g *Generator) manifest(doc *report.Document) Manifest {
	return Manifest{
		Database:    doc.Database,
		Schema:      doc.Schema,
		GeneratedAt: g.now().UTC(),
		Stats:       report.Summarize(doc),
	}
}

func (g *Generator) title(doc *report.Document) string {
	switch {
	case g.opts.Title != "":
		return g.opts.Title
	case doc.Database != "":
		return "Database report: " + doc.Database
	default:
		return "Database report"
	}
}

func (g *Generator) bundledAssets() (*Assets, error) {
	g.assetsOnce.Do(func() {
		g.assets, g.assetsErr = BundleAssets(g.opts.Minify)
	})
	return g.assets, g.assetsErr
}

// OutputPath returns the default page path for a report file: the report
// name with its extensions replaced by .html.
func OutputPath(input string) string {
	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".zst", ".json"} {
		if len(base) > len(ext) && filepath.Ext(base) == ext {
			base = base[:len(base)-len(ext)]
		}
	}
	return filepath.Join(filepath.Dir(input), base+".html")
}
