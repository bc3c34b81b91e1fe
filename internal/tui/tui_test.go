package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func feed(t *testing.T, lines ...string) {
	t.Helper()
	SetInput(strings.NewReader(strings.Join(lines, "\n")))
	t.Cleanup(func() { SetInput(nil) })
}

func TestPrintHelpers(t *testing.T) {
	buf := capture(t)

	PrintSuccess("saved")
	PrintInfo("hello")
	PrintWarn("careful")
	PrintError("boom")
	PrintStep("next")

	out := buf.String()
	for _, want := range []string{"[OK]", "saved", "[INFO]", "[WARN]", "[ERROR]", ">>>", "next"} {
		assert.Contains(t, out, want)
	}
}

func TestPromptInput(t *testing.T) {
	capture(t)
	feed(t, "  ada@example.com  ", "", "last-without-newline")

	got, err := PromptInput("Email", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	got, err = PromptInput("Return to", "/login")
	require.NoError(t, err)
	assert.Equal(t, "/login", got)

	got, err = PromptInput("Name", "")
	require.NoError(t, err)
	assert.Equal(t, "last-without-newline", got)

	_, err = PromptInput("Name", "")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestPromptSecretFromPipe(t *testing.T) {
	capture(t)
	feed(t, " spaces kept ")

	got, err := PromptSecret("Password")
	require.NoError(t, err)
	assert.Equal(t, " spaces kept ", got)
	assert.False(t, IsInteractive())
}

func TestConfirm(t *testing.T) {
	capture(t)
	feed(t, "", "yes", "n", "", "")

	tests := []struct {
		def  bool
		want bool
	}{
		{true, true},
		{false, true},
		{true, false},
		{false, false},
	}
	for _, tt := range tests {
		got, err := Confirm("Remember me?", tt.def)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSelectMenu(t *testing.T) {
	buf := capture(t)
	feed(t, "0", "abc", "2")

	idx, err := SelectMenu("Sign in with", []MenuItem{
		{Label: "Email and password"},
		{Label: "Google", Description: "opens your browser"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, strings.Count(buf.String(), "Enter a number between 1 and 2"))

	_, err = SelectMenu("empty", nil)
	assert.Error(t, err)
}

func TestSessionStatusLine(t *testing.T) {
	out := SessionStatus{Backend: "file"}.Line()
	assert.Contains(t, out, "signed out")

	out = SessionStatus{SignedIn: true, User: "Ada", Token: "abcdef0123456789wxyz", Backend: "sqlite"}.Line()
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "abcdef...wxyz")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "sqlite")
}
