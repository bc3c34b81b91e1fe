package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser opens a URL in the default browser. It falls back to
// printing the URL when no opener exists for the platform.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		fmt.Printf("  Please open: %s\n", url)
		return nil
	}
	return cmd.Start()
}
