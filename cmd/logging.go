package main

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging installs the global zerolog logger. Console output is
// limited to warnings unless debug is set, so log lines stay out of the
// prompts. A log file gets JSON lines at info level or above.
func setupLogging(debug bool, logFile *os.File) {
	level := zerolog.WarnLevel
	if logFile != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if logFile != nil {
		w = logFile
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	// net/http and gin write through these; keep them off the prompt too.
	stdlog.SetOutput(log.Logger)
	stdlog.SetFlags(0)
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// openLogFile opens path for appending, creating its directory. An empty
// path means no log file.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 -- user-configured log path
}
