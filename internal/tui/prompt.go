package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when input ends before an answer is read.
var ErrNoInput = errors.New("no input")

var (
	input  io.Reader = os.Stdin
	reader           = bufio.NewReader(input)
)

// SetInput redirects prompts to r. Passing nil restores stdin.
func SetInput(r io.Reader) {
	if r == nil {
		r = os.Stdin
	}
	input = r
	reader = bufio.NewReader(r)
}

// IsInteractive reports whether prompts read from a terminal.
func IsInteractive() bool {
	f, ok := input.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readLine() (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptInput asks for a line of text. An empty answer yields def.
func PromptInput(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(Output, "%s%s%s [%s]: ", ColorBold, label, ColorReset, def)
	} else {
		fmt.Fprintf(Output, "%s%s%s: ", ColorBold, label, ColorReset)
	}
	answer, err := readLine()
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// PromptSecret asks for a value without echoing it when reading from a terminal.
func PromptSecret(label string) (string, error) {
	fmt.Fprintf(Output, "%s%s%s: ", ColorBold, label, ColorReset)

	if IsInteractive() {
		f := input.(*os.File)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(Output)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return readLine()
}

// Confirm asks a yes/no question.
func Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(Output, "%s [%s]: ", question, hint)
	answer, err := readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// MenuItem is one choice in a SelectMenu.
type MenuItem struct {
	Label       string
	Description string
	Value       string
}

// SelectMenu prints items numbered from 1 and returns the index picked.
// Invalid answers are asked again.
func SelectMenu(title string, items []MenuItem) (int, error) {
	if len(items) == 0 {
		return -1, errors.New("menu has no items")
	}
	fmt.Fprintf(Output, "%s%s%s\n", ColorBold, title, ColorReset)
	for i, item := range items {
		if item.Description != "" {
			fmt.Fprintf(Output, "  %s%d)%s %s %s- %s%s\n", ColorCyan, i+1, ColorReset, item.Label, ColorDim, item.Description, ColorReset)
		} else {
			fmt.Fprintf(Output, "  %s%d)%s %s\n", ColorCyan, i+1, ColorReset, item.Label)
		}
	}

	for {
		fmt.Fprint(Output, "Choice: ")
		answer, err := readLine()
		if err != nil {
			return -1, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		PrintWarn(fmt.Sprintf("Enter a number between 1 and %d", len(items)))
	}
}
