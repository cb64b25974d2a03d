package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the browser key bindings.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	NextKind  key.Binding
	MatchOnly key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings. Printable keys are left to the
// search input.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous table")),
		Down:      key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next table")),
		Toggle:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand/collapse")),
		NextKind:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "search kind")),
		MatchOnly: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "matching columns only")),
		PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.NextKind, k.MatchOnly, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.NextKind, k.MatchOnly},
		{k.PageUp, k.PageDown, k.Quit},
	}
}
