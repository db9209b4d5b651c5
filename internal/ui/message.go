package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/insteon/internal/protocol"
)

// TimestampFormat is the layout used for message timestamps
const TimestampFormat = "15:04:05.000"

// MessageOptions controls how a decoded message is rendered
type MessageOptions struct {
	Nickname  func(protocol.Address) string // Optional address to name lookup
	Duplicate bool                          // Render as a suppressed retransmission
	ShowRaw   bool                          // Append the raw bytes
}

// FormatMessage renders a decoded message as a single line
//
// Example output:
//
//	08:30:00.125  StandardMessageReceived  fromAddress=1A.2B.3C (Hall Keypad)  toAddress=00.00.01
//	              messageFlags=0xCB AllLinkBroadcast  command1=0x11  command2=0x00  group=1
func FormatMessage(msg *protocol.Message, opts MessageOptions) string {
	parts := []string{}

	if !msg.Timestamp.IsZero() {
		parts = append(parts, msg.Timestamp.Format(TimestampFormat))
	}

	if opts.Duplicate {
		parts = append(parts, DuplicateMarker+" "+msg.Name())
		parts = append(parts, formatFields(msg, opts, false)...)
		return DuplicateStyle.Render(strings.Join(parts, "  "))
	}

	if !msg.Timestamp.IsZero() {
		parts[0] = TimestampStyle.Render(parts[0])
	}
	parts = append(parts, MessageNameStyle.Render(msg.Name()))
	parts = append(parts, formatFields(msg, opts, true)...)
	return strings.Join(parts, "  ")
}

// formatFields renders every named field except the command byte, followed by
// the derived group and checksum status
func formatFields(msg *protocol.Message, opts MessageOptions, styled bool) []string {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var out []string
	for _, f := range msg.Definition().Fields() {
		if f.Name == protocol.FieldCmd {
			continue
		}

		var value string
		switch f.Type {
		case protocol.FieldAddress:
			a, _ := msg.Address(f.Name)
			value = a.String()
			if opts.Nickname != nil {
				if nick := opts.Nickname(a); nick != "" {
					value += " (" + nick + ")"
				}
			}
		default:
			b, _ := msg.Byte(f.Name)
			value = fmt.Sprintf("0x%02X", b)
			switch f.Name {
			case protocol.FieldMessageFlags:
				t := msg.Type()
				value += " " + render(MsgTypeStyle(t), t.String())
			case protocol.FieldAckNack:
				if msg.IsAck() {
					value += " " + render(lipgloss.NewStyle().Foreground(SuccessColor), "ACK")
				} else if msg.IsNack() {
					value += " " + render(lipgloss.NewStyle().Foreground(ErrorColor), "NACK")
				}
			}
		}

		out = append(out, render(FieldKeyStyle, f.Name+"=")+render(FieldValueStyle, value))
	}

	if group := msg.Group(); group != protocol.NoGroup {
		out = append(out, render(FieldKeyStyle, "group=")+render(FieldValueStyle, fmt.Sprintf("%d", group)))
	}

	if msg.IsExtended() {
		out = append(out, render(FieldKeyStyle, "crc=")+formatCRC(msg, render))
	}

	if opts.ShowRaw {
		out = append(out, render(FieldKeyStyle, "raw=")+render(FieldValueStyle, msg.Hex()))
	}

	return out
}

func formatCRC(msg *protocol.Message, render func(lipgloss.Style, string) string) string {
	ok := lipgloss.NewStyle().Foreground(SuccessColor)
	switch {
	case msg.HasValidCRC2():
		return render(ok, "crc2 "+SuccessMarker)
	case msg.HasValidCRC():
		return render(ok, "crc1 "+SuccessMarker)
	default:
		return render(lipgloss.NewStyle().Foreground(MutedColor), "none")
	}
}

// FormatDefinition renders one definition with its field layout
func FormatDefinition(def *protocol.Definition) string {
	var lines []string

	title := MessageNameStyle.Render(def.Name)
	meta := fmt.Sprintf("%s, %d bytes, header %d", def.Direction, def.Length(), def.HeaderLength)
	if def.IsExtended() {
		meta += ", extended"
	}
	lines = append(lines, title+"  "+TimestampStyle.Render(meta))

	tmpl := def.Template()
	lines = append(lines, "  "+FieldKeyStyle.Render("template ")+FieldValueStyle.Render(fmt.Sprintf("% X", tmpl)))

	for _, f := range def.Fields() {
		lines = append(lines, fmt.Sprintf("  %s %s",
			FieldKeyStyle.Render(fmt.Sprintf("[%2d]", f.Offset)),
			FieldValueStyle.Render(fmt.Sprintf("%-18s %s", f.Name, f.Type)),
		))
	}

	return strings.Join(lines, "\n")
}

// FormatDefinitionList renders a one-line summary per definition
func FormatDefinitionList(defs []*protocol.Definition) string {
	var lines []string
	for _, def := range defs {
		cmd := "--"
		if c, ok := def.Command(); ok {
			cmd = fmt.Sprintf("%02X", c)
		}
		ext := ""
		if def.IsExtended() {
			ext = "ext"
		}
		lines = append(lines, fmt.Sprintf("%s  %-34s %-9s %3d  %s",
			FieldValueStyle.Render(cmd),
			def.Name,
			def.Direction,
			def.Length(),
			FieldKeyStyle.Render(ext),
		))
	}
	return strings.Join(lines, "\n")
}
