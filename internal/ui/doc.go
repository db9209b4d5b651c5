// Package ui provides terminal rendering for the insteon-msg CLI.
//
// This package uses Lipgloss to render decoded messages, definition listings
// and result boxes. Components are "render once" strings; nothing here reads
// input or runs an event loop.
//
// # Components
//
//   - FormatMessage: one line per decoded message, colored by message type,
//     with duplicates muted
//   - FormatDefinition / FormatDefinitionList: message definition layouts
//   - Header: command banner shown before streaming output
//   - Result: success, warning or failure summary box
//
// Colors follow the terminal profile detected by Lipgloss. SetColorEnabled
// forces plain output, e.g. when the user disables color in the config file.
//
// # Logging Integration
//
// This package expects logging to be controlled via the INSTEON_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the rendered output to be displayed cleanly.
package ui
