package page

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/leapstack-labs/dbexplorer/internal/testutil"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const testReport = `{
  "database": "shop",
  "tables": [
    {"name": "orders", "records": 2, "columns": [
      {"type": "numeric", "data": [
        {"key": "Name", "value": "id"},
        {"key": "SQL Type", "value": "integer"},
        {"key": "Empty", "value": "0.00 %"}
      ]},
      {"type": "character", "data": [
        {"key": "Name", "value": "note"},
        {"key": "SQL Type", "value": "text"},
        {"key": "The most common", "value": ["</script><b>x</b>", null]}
      ]}
    ]},
    {"name": "empty_table", "records": 0, "columns": []}
  ]
}`

func loadDoc(t *testing.T) *report.Document {
	t.Helper()
	doc, err := report.Load(strings.NewReader(testReport))
	require.NoError(t, err)
	return doc
}

func byID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func scripts(doc *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			out = append(out, n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func renderPage(t *testing.T, opts Options) (string, *html.Node) {
	t.Helper()
	gen := NewGenerator(opts, testutil.NewTestLogger(t))
	gen.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, gen.Render(context.Background(), loadDoc(t), &buf))

	doc, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return buf.String(), doc
}

func TestRender_Bindings(t *testing.T) {
	_, doc := renderPage(t, Options{})
	b := DefaultBindings()

	for _, id := range []string{b.SearchValue, b.SearchKind, b.MatchOnly, b.MatchOnlyContainer, b.Results, b.DatabaseName} {
		assert.NotNil(t, byID(doc, id), "missing element #%s", id)
	}

	container := byID(doc, b.MatchOnlyContainer)
	var hidden bool
	for _, a := range container.Attr {
		hidden = hidden || a.Key == "hidden"
	}
	assert.True(t, hidden, "match-only toggle is hidden unless kind is column")

	header := byID(doc, b.DatabaseName)
	require.NotNil(t, header.FirstChild)
	assert.Equal(t, "shop", header.FirstChild.Data)
}

func TestRender_CustomBindings(t *testing.T) {
	b := DefaultBindings()
	b.Results = "cards"
	out, doc := renderPage(t, Options{Bindings: b, Kind: search.KindColumn})

	assert.NotNil(t, byID(doc, "cards"))
	assert.Nil(t, byID(doc, "results"))
	assert.Contains(t, out, `"results":"cards"`)
	assert.NotContains(t, out, `id="match-only-container" hidden`)
}

func TestRender_InitialView(t *testing.T) {
	_, doc := renderPage(t, Options{})

	results := byID(doc, DefaultBindings().Results)
	require.NotNil(t, results)
	assert.NotNil(t, byID(results, view.CardID("orders")))
	assert.NotNil(t, byID(results, view.CardID("empty_table")))
}

func attrValues(root *html.Node, key string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == key {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func TestRender_InitialMatchOnlyDropsHiddenGroups(t *testing.T) {
	_, doc := renderPage(t, Options{Kind: search.KindColumn, Query: "note", MatchOnly: true})

	results := byID(doc, DefaultBindings().Results)
	require.NotNil(t, results)
	assert.Equal(t, []string{"orders"}, attrValues(results, "data-table"))
	assert.Equal(t, []string{"character"}, attrValues(results, "data-group"),
		"the numeric group has no matching column and is left out")

	_, doc = renderPage(t, Options{Kind: search.KindColumn, Query: "note"})
	results = byID(doc, DefaultBindings().Results)
	assert.Equal(t, []string{"numeric", "character"}, attrValues(results, "data-group"))
}

func TestRender_InitialQuery(t *testing.T) {
	_, doc := renderPage(t, Options{Query: "EMPTY"})

	results := byID(doc, DefaultBindings().Results)
	require.NotNil(t, results)
	assert.Equal(t, []string{"empty_table"}, attrValues(results, "data-table"))

	input := byID(doc, DefaultBindings().SearchValue)
	require.NotNil(t, input)
	assert.Contains(t, attrValues(input, "value"), "EMPTY")

	_, doc = renderPage(t, Options{Query: "missing"})
	results = byID(doc, DefaultBindings().Results)
	assert.Empty(t, attrValues(results, "data-table"))
	assert.Contains(t, attrValues(results, "class"), "no-matches")
}

func TestRender_EmbeddedReportIsScriptSafe(t *testing.T) {
	out, doc := renderPage(t, Options{Minify: true})

	// The only closing script tags are the two real ones.
	assert.Equal(t, 2, strings.Count(out, "</script>"))

	var cfgScript string
	for _, s := range scripts(doc) {
		if strings.HasPrefix(s, "window.__DBEXPLORER__ = ") {
			cfgScript = s
		}
	}
	require.NotEmpty(t, cfgScript)

	payload := strings.TrimSuffix(strings.TrimPrefix(cfgScript, "window.__DBEXPLORER__ = "), ";")
	var cfg struct {
		Bindings  Bindings          `json:"bindings"`
		CardIDs   map[string]string `json:"cardIds"`
		NoMatches string            `json:"noMatches"`
		Manifest  Manifest          `json:"manifest"`
		Report    struct {
			Tables []struct {
				Name    string `json:"name"`
				Columns []struct {
					Name string `json:"name"`
				} `json:"columns"`
			} `json:"tables"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &cfg))

	assert.Equal(t, DefaultBindings(), cfg.Bindings)
	assert.Equal(t, view.NoMatchesText, cfg.NoMatches)
	assert.Equal(t, view.CardID("orders"), cfg.CardIDs["orders"])
	assert.Equal(t, 2, cfg.Manifest.Stats.Columns)
	require.Len(t, cfg.Report.Tables, 2)
	assert.Equal(t, "note", cfg.Report.Tables[0].Columns[1].Name)
}

func TestRender_Strict(t *testing.T) {
	doc, err := report.Load(strings.NewReader(`{"tables":[{"name":"t","records":1,"columns":[{"type":"numeric","data":[]}]}]}`))
	require.NoError(t, err)

	gen := NewGenerator(Options{Strict: true}, nil)
	err = gen.Render(context.Background(), doc, &bytes.Buffer{})
	assert.ErrorIs(t, err, report.ErrMissingRequiredFact)

	// Without strict mode the unnamed column still fails the initial render.
	gen = NewGenerator(Options{}, nil)
	err = gen.Render(context.Background(), doc, &bytes.Buffer{})
	assert.ErrorIs(t, err, report.ErrMissingRequiredFact)
}

func TestRender_Title(t *testing.T) {
	out, _ := renderPage(t, Options{})
	assert.Contains(t, out, "<title>Database report: shop</title>")

	out, _ = renderPage(t, Options{Title: "Nightly"})
	assert.Contains(t, out, "<title>Nightly</title>")
}

func TestBundleAssets(t *testing.T) {
	plain, err := BundleAssets(false)
	require.NoError(t, err)
	minified, err := BundleAssets(true)
	require.NoError(t, err)

	assert.NotEmpty(t, plain.JS)
	assert.NotEmpty(t, plain.CSS)
	assert.Less(t, len(minified.JS), len(plain.JS))
	assert.Less(t, len(minified.CSS), len(plain.CSS))
	assert.Contains(t, plain.JS, "__DBEXPLORER__")
	assert.NotContains(t, plain.JS, "</")
}

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "report.html")

	gen := NewGenerator(Options{}, testutil.NewTestLogger(t))
	require.NoError(t, gen.BuildFile(context.Background(), loadDoc(t), out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("<!DOCTYPE html>")))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"report.json":             "report.html",
		"dir/report.json.gz":      filepath.Join("dir", "report.html"),
		"dir/report.json.zst":     filepath.Join("dir", "report.html"),
		"report":                  "report.html",
		filepath.Join("a", ".gz"): filepath.Join("a", ".gz.html"),
	}
	for in, want := range tests {
		assert.Equal(t, want, OutputPath(in), "OutputPath(%q)", in)
	}
}

func TestOpenInBrowser(t *testing.T) {
	var gotName string
	var gotArgs []string
	orig := startCommand
	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}
	t.Cleanup(func() { startCommand = orig })

	require.NoError(t, OpenInBrowser("report.html"))
	assert.NotEmpty(t, gotName)
	require.NotEmpty(t, gotArgs)
	last := gotArgs[len(gotArgs)-1]
	assert.True(t, strings.HasPrefix(last, "file://"))
	assert.True(t, strings.HasSuffix(last, "report.html"))
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.json")
	output := filepath.Join(dir, "report.html")
	require.NoError(t, os.WriteFile(input, []byte(testReport), 0600))

	gen := NewGenerator(Options{}, testutil.NewTestLogger(t))
	w := NewWatcher(gen, input, output, 20*time.Millisecond)
	rebuilt := make(chan error, 4)
	w.OnBuild = func(err error) {
		select {
		case rebuilt <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(output)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	updated := strings.Replace(testReport, `"shop"`, `"warehouse"`, 1)
	// Retry the write until the watcher has been registered and fires.
	var buildErr error
	require.Eventually(t, func() bool {
		if err := os.WriteFile(input, []byte(updated), 0600); err != nil {
			return false
		}
		select {
		case buildErr = <-rebuilt:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 10*time.Millisecond)
	require.NoError(t, buildErr)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "warehouse")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
