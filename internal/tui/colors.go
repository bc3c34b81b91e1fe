// Package tui holds the terminal helpers shared by the CLI screens:
// colors, the [OK]/[INFO]/[WARN]/[ERROR] print helpers, prompts and menus.
package tui

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorRed    = "\033[0;31m"
	ColorGreen  = "\033[0;32m"
	ColorYellow = "\033[1;33m"
	ColorBlue   = "\033[0;34m"
	ColorCyan   = "\033[0;36m"
)
