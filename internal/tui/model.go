// Package tui is the interactive terminal browser for a report. It binds a
// search input, a kind selector and a match-only toggle to the results
// viewport; every change filters and renders the tables again.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/dbexplorer/internal/report"
	"github.com/leapstack-labs/dbexplorer/internal/search"
	"github.com/leapstack-labs/dbexplorer/internal/view"
	"github.com/leapstack-labs/dbexplorer/internal/view/textview"
)

// chromeHeight is the number of lines around the viewport: title, input,
// controls, error and help.
const chromeHeight = 5

// Options sets the initial state of the browser.
type Options struct {
	Query     string
	Kind      search.Kind
	MatchOnly bool
	Styles    textview.Styles
}

// Model is the bubbletea model of the browser.
type Model struct {
	tables   []*report.Table
	database string
	summary  string

	input     textinput.Model
	kind      search.Kind
	matchOnly bool
	viewport  viewport.Model
	help      help.Model
	keys      KeyMap
	renderer  *textview.Renderer
	styles    textview.Styles
	muted     lipgloss.Style

	tree     *view.Tree
	cursor   int
	expanded map[string]bool
	err      error
}

// New creates a browser over doc.
func New(doc *report.Document, opts Options) *Model {
	if !opts.Kind.Valid() {
		opts.Kind = search.KindTable
	}

	in := textinput.New()
	in.Prompt = "search: "
	in.Placeholder = "type to filter"
	in.CharLimit = 256
	in.SetValue(opts.Query)
	in.Focus()

	m := &Model{
		tables:    doc.Tables,
		database:  doc.Database,
		summary:   report.Summarize(doc).Summary(),
		input:     in,
		kind:      opts.Kind,
		matchOnly: opts.MatchOnly,
		viewport:  viewport.New(80, 20),
		help:      help.New(),
		keys:      DefaultKeyMap(),
		renderer:  textview.New(opts.Styles),
		styles:    opts.Styles,
		muted:     opts.Styles.Placeholder,
	}
	m.refresh()
	return m
}

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, doc *report.Document, opts Options) error {
	p := tea.NewProgram(New(doc, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.help.Width = msg.Width
		m.redraw()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextKind):
			m.kind = m.kind.Next()
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.MatchOnly):
			if m.kind == search.KindColumn {
				m.matchOnly = !m.matchOnly
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			m.toggleCurrent()
			return m, nil
		case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(m.database))
	sb.WriteString(m.muted.Render("  " + m.summary))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(m.controls())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(m.styles.Bad.Render("error: " + m.err.Error()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m *Model) controls() string {
	parts := []string{"kind: " + m.kind.String()}
	if m.kind == search.KindColumn {
		state := "off"
		if m.matchOnly {
			state = "on"
		}
		parts = append(parts, "matching columns only: "+state)
	}
	return m.muted.Render(strings.Join(parts, "   "))
}

// refresh filters and renders from scratch. Expansion state does not survive
// a re-render.
func (m *Model) refresh() {
	m.expanded = make(map[string]bool)
	m.cursor = 0
	m.err = nil

	filtered, err := search.Filter(m.kind, m.input.Value(), m.tables)
	if err == nil {
		m.tree, err = view.Render(filtered, view.Options{
			Kind:      m.kind,
			Query:     m.input.Value(),
			MatchOnly: m.matchOnly,
		})
	}
	if err != nil {
		m.err = err
		m.tree = &view.Tree{Placeholder: view.NoMatchesText}
	}
	m.viewport.GotoTop()
	m.redraw()
}

func (m *Model) moveCursor(delta int) {
	if m.tree.Empty() {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.tree.Cards)-1)
	m.redraw()
}

func (m *Model) toggleCurrent() {
	if m.tree.Empty() {
		return
	}
	id := m.tree.Cards[m.cursor].ID
	m.expanded[id] = !m.expanded[id]
	m.redraw()
}

// redraw rebuilds the viewport content and keeps the selected card visible.
func (m *Model) redraw() {
	if m.tree.Empty() {
		m.viewport.SetContent(m.renderer.Placeholder(m.tree))
		return
	}

	var sb strings.Builder
	selectedLine, line := 0, 0
	for i, c := range m.tree.Cards {
		if i == m.cursor {
			selectedLine = line
		}
		open := m.expanded[c.ID]
		fmt.Fprintln(&sb, m.renderer.CardHeader(c, i == m.cursor, open))
		line++
		if open {
			body := m.renderer.CardBody(c)
			sb.WriteString(body)
			line += strings.Count(body, "\n")
		}
	}
	m.viewport.SetContent(sb.String())

	if selectedLine < m.viewport.YOffset {
		m.viewport.SetYOffset(selectedLine)
	} else if selectedLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selectedLine - m.viewport.Height + 1)
	}
}

// Tree returns the currently rendered tree.
func (m *Model) Tree() *view.Tree { return m.tree }

// Kind returns the current search kind.
func (m *Model) Kind() search.Kind { return m.kind }

// MatchOnly reports whether only matching columns are shown.
func (m *Model) MatchOnly() bool { return m.matchOnly }

// Cursor returns the index of the selected card.
func (m *Model) Cursor() int { return m.cursor }

// Expanded reports whether the card with id is expanded.
func (m *Model) Expanded(id string) bool { return m.expanded[id] }

// Err returns the error of the last render, if any.
func (m *Model) Err() error { return m.err }
