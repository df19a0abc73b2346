// Package tui provides the terminal user interface for cw.
//
// It handles:
//   - Interactive confirmations and selections (using survey)
//   - Structured logging and status reporting (Splog)
//   - Terminal styling and colors (using lipgloss)
package tui
