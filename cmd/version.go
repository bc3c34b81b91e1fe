package main

import (
	"fmt"
	"runtime"

	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/tui"
)

// Version is set at build time via ldflags.
var Version = "v0.1.0"

func printVersion() {
	fmt.Printf("%s%s%s %s\n", tui.ColorBold, config.AppName, tui.ColorReset, Version)
	fmt.Printf("Runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
