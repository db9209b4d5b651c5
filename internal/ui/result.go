package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one key-value line in a result box
type Detail struct {
	Key   string
	Value string
}

// Result represents a result box (success, failure, or warning)
type Result struct {
	Type    ResultType // Success, failure, or warning
	Title   string     // e.g., "Decoded 42 messages"
	Details []Detail   // Key-value details, rendered in order
	Error   error      // Error (for failure results)
	Hints   []string   // Suggestions (for failure results)
	Width   int        // Terminal width
}

func newResult(t ResultType, title string) *Result {
	return &Result{Type: t, Title: title, Width: GetTerminalWidth()}
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string) *Result {
	return newResult(ResultSuccess, title)
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints []string) *Result {
	r := newResult(ResultFailure, title)
	r.Error = err
	r.Hints = hints
	return r
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string) *Result {
	return newResult(ResultWarning, title)
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// AddDetailf appends a detail with a formatted value
func (r *Result) AddDetailf(key, format string, args ...any) *Result {
	return r.AddDetail(key, fmt.Sprintf(format, args...))
}

// resultLook is the marker, label and colors of one ResultType
type resultLook struct {
	marker, label string
	title         lipgloss.Style
	border        lipgloss.Color
}

var resultLooks = map[ResultType]resultLook{
	ResultSuccess: {SuccessMarker, "SUCCESS", SuccessTitleStyle, SuccessColor},
	ResultWarning: {WarningMarker, "WARNING", WarningTitleStyle, WarningColor},
	ResultFailure: {FailureMarker, "FAILED", ErrorTitleStyle, ErrorColor},
}

// Render returns the result in a double-bordered box. Sections (details,
// error, hints) are separated by blank lines and omitted when empty.
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)
	look, ok := resultLooks[r.Type]
	if !ok {
		look = resultLooks[ResultSuccess]
	}

	sections := [][]string{{
		look.title.Render(fmt.Sprintf("%s  %s  ─  %s", look.marker, look.label, r.Title)),
	}}

	if len(r.Details) > 0 {
		keyWidth := 0
		for _, d := range r.Details {
			keyWidth = max(keyWidth, lipgloss.Width(d.Key)+1)
		}
		rows := make([]string, 0, len(r.Details))
		for _, d := range r.Details {
			key := ResultKeyStyle.Width(keyWidth).Render(d.Key + ":")
			rows = append(rows, key+" "+ResultValueStyle.Render(d.Value))
		}
		sections = append(sections, rows)
	}

	if r.Error != nil {
		sections = append(sections, []string{ErrorMessageStyle.Render("Error: " + r.Error.Error())})
	}

	if len(r.Hints) > 0 {
		rows := make([]string, 0, len(r.Hints))
		for _, hint := range r.Hints {
			rows = append(rows, TroubleshootingItemStyle.Render("• "+hint))
		}
		sections = append(sections, rows)
	}

	blocks := make([]string, len(sections))
	for i, rows := range sections {
		blocks[i] = strings.Join(rows, "\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(look.border).
		Width(width-2).
		Padding(1, 3).
		Render(strings.Join(blocks, "\n\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderFailure renders a failure box with the given title, error, and hints
func RenderFailure(title string, err error, hints []string) string {
	return NewFailureResult(title, err, hints).Render()
}
