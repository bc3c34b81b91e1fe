package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Output is where the print helpers write. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

// PrintHeader prints a boxed screen title.
func PrintHeader(title string) {
	bar := strings.Repeat("=", 56)
	fmt.Fprintf(Output, "%s%s%s%s\n", ColorBold, ColorCyan, bar, ColorReset)
	fmt.Fprintf(Output, "%s%s       %s%s\n", ColorBold, ColorCyan, title, ColorReset)
	fmt.Fprintf(Output, "%s%s%s%s\n", ColorBold, ColorCyan, bar, ColorReset)
	fmt.Fprintln(Output)
}

func PrintSuccess(msg string) {
	fmt.Fprintf(Output, "%s[OK]%s %s\n", ColorGreen, ColorReset, msg)
}

func PrintInfo(msg string) {
	fmt.Fprintf(Output, "%s[INFO]%s %s\n", ColorBlue, ColorReset, msg)
}

func PrintWarn(msg string) {
	fmt.Fprintf(Output, "%s[WARN]%s %s\n", ColorYellow, ColorReset, msg)
}

func PrintError(msg string) {
	fmt.Fprintf(Output, "%s[ERROR]%s %s\n", ColorRed, ColorReset, msg)
}

func PrintStep(msg string) {
	fmt.Fprintf(Output, "%s>>>%s %s\n", ColorCyan, ColorReset, msg)
}

// PrintField prints an indented "label: value" line.
func PrintField(label, value string) {
	fmt.Fprintf(Output, "  %s%s:%s %s\n", ColorDim, label, ColorReset, value)
}
