// Package textview renders a view tree for the terminal: one header line per
// card and, for expanded cards, a table per column group.
package textview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbexplorer/internal/view"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Title       lipgloss.Style
	Selected    lipgloss.Style
	Group       lipgloss.Style
	Placeholder lipgloss.Style
	Good        lipgloss.Style
	Mediocre    lipgloss.Style
	Bad         lipgloss.Style
}

// DefaultStyles returns coloured styles for the default lipgloss renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles returns coloured styles bound to the colour profile of r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:       r.NewStyle().Bold(true),
		Selected:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Group:       r.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Placeholder: r.NewStyle().Foreground(lipgloss.Color("245")),
		Good:        r.NewStyle().Foreground(lipgloss.Color("2")),
		Mediocre:    r.NewStyle().Foreground(lipgloss.Color("3")),
		Bad:         r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// PlainStyles returns styles that add no escape sequences.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Title: s, Selected: s, Group: s, Placeholder: s, Good: s, Mediocre: s, Bad: s}
}

// Renderer renders trees with a fixed set of styles.
type Renderer struct {
	styles Styles
}

// New creates a Renderer.
func New(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Tree writes every card of t. Cards whose ID is in expanded, or all cards
// when expandAll is set, include their group tables.
func (r *Renderer) Tree(w io.Writer, t *view.Tree, expanded map[string]bool, expandAll bool) error {
	if t.Empty() {
		_, err := fmt.Fprintln(w, r.Placeholder(t))
		return err
	}
	for _, c := range t.Cards {
		open := expandAll || expanded[c.ID]
		if _, err := fmt.Fprintln(w, r.CardHeader(c, false, open)); err != nil {
			return err
		}
		if open {
			if _, err := fmt.Fprint(w, r.CardBody(c)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Placeholder returns the styled "no matches" line.
func (r *Renderer) Placeholder(t *view.Tree) string {
	text := t.Placeholder
	if text == "" {
		text = view.NoMatchesText
	}
	return r.styles.Placeholder.Render(text)
}

// CardHeader returns the one-line header of a card.
func (r *Renderer) CardHeader(c view.Card, selected, expanded bool) string {
	marker := "▸"
	if expanded {
		marker = "▾"
	}
	style := r.styles.Title
	if selected {
		style = r.styles.Selected
	}
	return style.Render(marker + " " + c.Title())
}

// CardBody returns the group tables of a card, indented under its header.
func (r *Renderer) CardBody(c view.Card) string {
	var sb strings.Builder
	for _, g := range c.Groups {
		sb.WriteString("  ")
		sb.WriteString(r.styles.Group.Render(g.Title))
		sb.WriteString("\n")
		for _, line := range strings.Split(r.groupTable(g), "\n") {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (r *Renderer) groupTable(g view.Group) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(g.Header))
	for i, h := range g.Header {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, row := range g.Rows {
		cells := make(table.Row, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = r.cellText(cell)
		}
		t.AppendRow(cells)
	}
	return t.Render()
}

func (r *Renderer) cellText(c view.Cell) string {
	text := c.Text("\n")
	switch c.Class {
	case view.ClassGood:
		return r.styles.Good.Render(text)
	case view.ClassMediocre:
		return r.styles.Mediocre.Render(text)
	case view.ClassBad:
		return r.styles.Bad.Render(text)
	default:
		return text
	}
}
