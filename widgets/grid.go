package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"padbeat/theme"
)

// CellState describes one step cell for rendering
type CellState struct {
	Active   bool
	Playhead bool
	Cursor   bool
}

// StepCell picks the symbol for a grid cell
func StepCell(sym theme.Symbols, c CellState) rune {
	switch {
	case c.Playhead && c.Cursor:
		return sym.CursorPlayhead
	case c.Playhead:
		return sym.StepPlayhead
	case c.Active && c.Cursor:
		return sym.CursorActive
	case c.Active:
		return sym.StepActive
	case c.Cursor:
		return sym.CursorEmpty
	default:
		return sym.StepEmpty
	}
}

// RenderPadLabel renders the left-hand pad column entry: number, load
// marker, and name truncated to fit.
func RenderPadLabel(sym theme.Symbols, pad int, loaded, selected bool, name string, width int) string {
	marker := sym.Empty
	if loaded {
		marker = sym.Solid
	}
	prefix := "  "
	if selected {
		prefix = "> "
	}
	if len(name) > width {
		name = name[:width-1] + "…"
	}
	return fmt.Sprintf("%s%2d %c %-*s", prefix, pad+1, marker, width, name)
}

// RenderMeter renders a small horizontal bar for a 0-1 value
func RenderMeter(th *theme.Theme, label string, value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := lipgloss.NewStyle().Foreground(th.Accent())
	return fmt.Sprintf("%s %s %.2f", label, style.Render(bar), value)
}
