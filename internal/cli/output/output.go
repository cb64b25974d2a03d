// Package output renders command results as styled text, markdown or JSON.
//
// In auto mode the renderer writes styled text to terminals and markdown to
// everything else, so piped output stays readable by other tools.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/dbexplorer/internal/view/textview"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are written.
type OutputMode string //nolint:revive // output.OutputMode reads better at call sites than output.Mode

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted values of the --output flag.
var Modes = []OutputMode{ModeAuto, ModeText, ModeMarkdown, ModeJSON}

// Mode converts s to an OutputMode. Unknown values fall back to auto.
func Mode(s string) OutputMode {
	m := OutputMode(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m
	}
	return ModeAuto
}

// Valid reports whether m is a known mode.
func (m OutputMode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}

// Styles holds the styles used for text output.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	color  bool

	lg     *lipgloss.Renderer
	styles Styles
}

// NewRenderer creates a Renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in int
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a Renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	profile := termenv.Ascii
	if isTTY {
		profile = termenv.NewOutput(out, termenv.WithTTY(true)).EnvColorProfile()
	}
	lg := lipgloss.NewRenderer(out)
	lg.SetColorProfile(profile)

	r := &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		color:  profile != termenv.Ascii,
		lg:     lg,
	}
	r.styles = Styles{
		Header:  lg.NewStyle().Bold(true).Underline(true),
		Bold:    lg.NewStyle().Bold(true),
		Muted:   lg.NewStyle().Foreground(lipgloss.Color("245")),
		Success: lg.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lg.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lg.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Key:     lg.NewStyle().Foreground(lipgloss.Color("12")),
	}
	return r
}

// EffectiveMode resolves auto to text on a terminal and markdown otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode.Valid() {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the diagnostics writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the text styles.
func (r *Renderer) Styles() Styles { return r.styles }

// ViewStyles returns the styles for rendering report trees. Colour is used
// only when the terminal supports it.
func (r *Renderer) ViewStyles() textview.Styles {
	if !r.color {
		return textview.PlainStyles()
	}
	return textview.NewStyles(r.lg)
}

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		return
	}
	r.Println(r.styles.Header.Render(text))
}

// KeyValue writes one labelled value.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatKeyValue(key, value))
		return
	}
	r.Printf("%s %s\n", r.styles.Key.Render(key+":"), value)
}

// Success writes a confirmation line.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(msg)
		return
	}
	r.Println(r.styles.Success.Render("✓") + " " + msg)
}

// Muted writes a de-emphasised line to the diagnostics writer.
func (r *Renderer) Muted(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Muted.Render(msg))
}

// Warning writes a warning to the diagnostics writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
}

// StatusLine writes "name  status  detail" to the diagnostics writer. The
// status is coloured by its outcome.
func (r *Renderer) StatusLine(name, status, detail string) {
	style := r.styles.Success
	if status != "ok" {
		style = r.styles.Error
	}
	line := fmt.Sprintf("%-12s %s", name, style.Render(status))
	if detail != "" {
		line += "  " + r.styles.Muted.Render(detail)
	}
	_, _ = fmt.Fprintln(r.errOut, line)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + text + "\n"
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}
