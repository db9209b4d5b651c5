package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/muurk/insteon/internal/protocol"
)

// Color palette for decoded message output
var (
	// Primary colors
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - ACKs, valid checksums
	ErrorColor   = lipgloss.Color("#FF5555") // Red - NACKs, bad checksums
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - duplicates, secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content

	// Message type colors
	BroadcastColor = lipgloss.Color("#56B6F4") // Blue - broadcasts
	AllLinkColor   = lipgloss.Color("#F456C8") // Pink - group traffic
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultPadding   = 2   // Default padding inside boxes
)

// Shared styles
var (
	// HeaderTitleStyle is for the main command title (e.g., "DECODE")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "insteon-msg decode")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Input:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// WarningTitleStyle is for the warning result title
	WarningTitleStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// ErrorMessageStyle is for error message text
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ResultValueStyle is for result detail values
	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// MessageNameStyle is for definition names in decoded output
	MessageNameStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	// TimestampStyle is for message timestamps
	TimestampStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// FieldKeyStyle is for field names in decoded output
	FieldKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// FieldValueStyle is for field values in decoded output
	FieldValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// DuplicateStyle renders a whole line for a suppressed retransmission
	DuplicateStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// TroubleshootingItemStyle is for troubleshooting bullet points
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Status markers
const (
	SuccessMarker   = "✓"
	FailureMarker   = "✗"
	WarningMarker   = "⚠"
	DuplicateMarker = "≡"
)

// MsgTypeStyle returns the style used for a message type label
func MsgTypeStyle(t protocol.MsgType) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch t {
	case protocol.MsgTypeBroadcast:
		return style.Foreground(BroadcastColor)
	case protocol.MsgTypeAllLinkBroadcast, protocol.MsgTypeAllLinkCleanup:
		return style.Foreground(AllLinkColor)
	case protocol.MsgTypeAckOfDirect, protocol.MsgTypeAllLinkCleanupAck:
		return style.Foreground(SuccessColor)
	case protocol.MsgTypeNackOfDirect, protocol.MsgTypeAllLinkCleanupNack:
		return style.Foreground(ErrorColor)
	case protocol.MsgTypeInvalid:
		return style.Foreground(MutedColor)
	default:
		return style.Foreground(TextColor)
	}
}

// SetColorEnabled switches styled output between the detected terminal
// profile and plain ASCII
func SetColorEnabled(enabled bool) {
	if enabled {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
