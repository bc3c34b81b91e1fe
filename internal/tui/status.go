package tui

import (
	"fmt"

	"github.com/evently/evently-auth/internal/utils"
)

// SessionStatus is the one-line summary of who is signed in.
type SessionStatus struct {
	SignedIn bool
	User     string // display name or email
	Token    string
	Backend  string
}

// Line formats the status for the dashboard header and `whoami`.
func (s SessionStatus) Line() string {
	if !s.SignedIn {
		return fmt.Sprintf("%s● signed out%s │ session: %s", ColorYellow, ColorReset, s.Backend)
	}
	who := s.User
	if who == "" {
		who = "unknown user"
	}
	return fmt.Sprintf("%s● signed in%s as %s%s%s │ token %s │ session: %s",
		ColorGreen, ColorReset,
		ColorBold, who, ColorReset,
		utils.MaskToken(s.Token),
		s.Backend)
}

// Render prints Line.
func (s SessionStatus) Render() {
	fmt.Fprintln(Output, s.Line())
}
