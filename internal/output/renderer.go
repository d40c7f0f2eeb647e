package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guangl/dm-parser-sqllog/internal/model"
)

// Renderer writes SQLEntry values to an output stream.
type Renderer interface {
	Render(entry model.SQLEntry) error
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleTime   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleUser   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	styleFast   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleSlow   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleSource = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true)
)

// TextRenderer prints entries to the terminal, coloring the execution
// time by how slow the statement was.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes colorized text to stdout.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{w: os.Stdout}
}

func (r *TextRenderer) Render(entry model.SQLEntry) error {
	ts := styleTime.Render(entry.Timestamp)
	user := styleUser.Render(entry.User)
	src := styleSource.Render(entry.Source)

	// Body condensed to one line for the terminal.
	body := strings.Join(strings.Fields(entry.Body), " ")

	line := fmt.Sprintf("%s %s %s %s %s", ts, user, execTag(entry.ExecTimeMs), src, body)
	_, err := fmt.Fprintln(r.w, line)
	return err
}

// execTag renders the execution time with a severity color, or a blank
// placeholder when the record carried no EXECTIME marker.
func execTag(ms *uint64) string {
	if ms == nil {
		return styleFast.Render("      -")
	}
	padded := fmt.Sprintf("%5dms", *ms)
	switch {
	case *ms >= 1000:
		return styleSlow.Render(padded)
	case *ms >= 100:
		return styleMedium.Render(padded)
	default:
		return styleFast.Render(padded)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each entry as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to stdout.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(os.Stdout)}
}

func (r *JSONRenderer) Render(entry model.SQLEntry) error {
	return r.enc.Encode(entry)
}
