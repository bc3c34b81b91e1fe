// Package utils provides small helpers shared by the client packages.
package utils

// MaskToken masks a bearer token for safe logging (first 6 and last 4 chars).
func MaskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) < 16 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}

// Truncate shortens s to at most n bytes, marking the cut with "...".
// Used to keep response bodies out of log lines.
func Truncate(s string, n int) string {
	if n <= 3 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
