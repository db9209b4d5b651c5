package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before streaming decoded output to a terminal
type Header struct {
	Title   string   // e.g., "DECODE"
	Command string   // e.g., "insteon-msg decode capture.bin"
	Params  []Detail // e.g., {"Input", "capture.bin"}, {"Dedup", "on"}
	Width   int
}

// NewHeader creates a header sized to the current terminal
func NewHeader(title, command string, params ...Detail) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth overrides the rendering width
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the header in a rounded box; parameter keys are padded so
// their values line up
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	rows := []string{
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	}

	if len(h.Params) > 0 {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", max(width-6, 10))))

		keyWidth := 0
		for _, p := range h.Params {
			keyWidth = max(keyWidth, lipgloss.Width(p.Key)+1)
		}
		for _, p := range h.Params {
			key := HeaderParamKeyStyle.Width(keyWidth + HeaderParamKeyStyle.GetPaddingLeft()).Render(p.Key + ":")
			rows = append(rows, key+" "+HeaderParamValueStyle.Render(p.Value))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (h *Header) String() string {
	return h.Render()
}
