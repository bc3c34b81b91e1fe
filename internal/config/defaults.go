// Package config - defaults.go centralizes default values for the client.
//
// DESIGN: Any default that is read in more than one place lives here so the
// CLI, the flows and the tests agree on the same numbers.
package config

import "time"

// =============================================================================
// APPLICATION
// =============================================================================

// AppName is used for the config directory and the User-Agent.
const AppName = "evently"

// AppTitle is appended to every screen title.
const AppTitle = "Event Management & Ticketing System"

// =============================================================================
// REMOTE AUTHENTICATION API
// =============================================================================

// DefaultAPIBaseURL is used when neither the config file nor EVENTLY_API_URL
// set a base address.
const DefaultAPIBaseURL = "http://localhost:5000"

// DefaultRequestTimeout bounds a single API call. Calls are never retried.
const DefaultRequestTimeout = 15 * time.Second

// =============================================================================
// SESSION STORAGE
// =============================================================================

// Session storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultSessionBackend persists the session as a JSON document.
const DefaultSessionBackend = BackendFile

// DefaultSessionFile is the file name of the JSON session document.
const DefaultSessionFile = "session.json"

// DefaultSQLiteFile is the file name of the SQLite session database.
const DefaultSQLiteFile = "session.db"

// =============================================================================
// SOCIAL AUTH
// =============================================================================

// DefaultRedirectDelay is how long an error is shown before going back to login.
const DefaultRedirectDelay = 3 * time.Second

// Callback delivery modes.
const (
	CallbackLoopback = "loopback"
	CallbackRelay    = "relay"
)

// DefaultCallbackAddr is where the loopback callback server listens.
const DefaultCallbackAddr = "127.0.0.1:18090"

// DefaultCallbackWait is how long the client waits for the provider to
// redirect back before giving up.
const DefaultCallbackWait = 5 * time.Minute

// DefaultRelayConnectTimeout bounds the websocket handshake with the relay.
const DefaultRelayConnectTimeout = 5 * time.Second

// DefaultShutdownTimeout bounds the graceful stop of the callback server.
const DefaultShutdownTimeout = 5 * time.Second
