// Package router maps navigation targets to screens.
//
// A Navigation is a path plus an optional typed ErrorContext. Resolve applies
// the route table, the session guards and the catch-all error route.
package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/evently/evently-auth/internal/config"
)

// Route paths.
const (
	RootPath           = "/"
	LoginPath          = "/login"
	RegisterPath       = "/register"
	SocialCallbackPath = "/social-auth-callback"
	DashboardPath      = "/dashboard"
	ErrorPath          = "*"
)

// maxHops bounds redirect chains.
const maxHops = 8

// Route is one entry of the route table.
type Route struct {
	Path         string
	Title        string
	GuestOnly    bool   // authenticated sessions are sent to DashboardPath
	RequiresAuth bool   // anonymous sessions are sent to LoginPath
	RedirectTo   string // unconditional redirect
}

var routes = []Route{
	{Path: RootPath, Title: "Home", RedirectTo: LoginPath},
	{Path: LoginPath, Title: "Login", GuestOnly: true},
	{Path: RegisterPath, Title: "Register", GuestOnly: true},
	{Path: SocialCallbackPath, Title: "Signing In"},
	{Path: DashboardPath, Title: "Dashboard", RequiresAuth: true},
}

var errorRoute = Route{Path: ErrorPath, Title: "Page Not Found"}

// ErrorContext is a message handed to the destination screen.
type ErrorContext struct {
	Message string
}

// Navigation is a request to show a route. A non-nil Failure sends it to
// the catch-all error route regardless of Path.
type Navigation struct {
	Path    string
	Error   *ErrorContext
	Failure *RouteError
}

// To returns a plain navigation to path.
func To(path string) Navigation {
	return Navigation{Path: path}
}

// WithError returns a copy of n carrying msg as its error context.
func (n Navigation) WithError(msg string) Navigation {
	n.Error = &ErrorContext{Message: msg}
	return n
}

// ErrorMessage returns the carried message, or "".
func (n Navigation) ErrorMessage() string {
	if n.Error == nil {
		return ""
	}
	return n.Error.Message
}

func (n Navigation) String() string {
	if n.Error == nil {
		return n.Path
	}
	return fmt.Sprintf("%s (error: %q)", n.Path, n.Error.Message)
}

// Lookup finds the route for path, ignoring any query string.
func Lookup(path string) (Route, bool) {
	path, _, _ = strings.Cut(path, "?")
	if path != RootPath {
		path = strings.TrimRight(path, "/")
	}
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Resolution is the screen a navigation ends up on.
type Resolution struct {
	Route      Route
	Navigation Navigation  // final navigation, query stripped
	Err        *RouteError // set for the catch-all route
}

// Resolve follows redirects and guards until a screen is reached. An "error"
// query parameter on the path becomes the navigation's ErrorContext unless
// one is already set. The error context survives redirects.
func Resolve(nav Navigation, authenticated bool) Resolution {
	if nav.Failure != nil {
		return Resolution{Route: errorRoute, Navigation: nav, Err: nav.Failure}
	}
	nav = normalize(nav)

	for hop := 0; hop < maxHops; hop++ {
		route, ok := Lookup(nav.Path)
		if !ok {
			return Resolution{Route: errorRoute, Navigation: nav, Err: NotFound()}
		}

		next := ""
		switch {
		case route.RedirectTo != "":
			next = route.RedirectTo
		case route.GuestOnly && authenticated:
			next = DashboardPath
		case route.RequiresAuth && !authenticated:
			next = LoginPath
		}
		if next == "" {
			nav.Path = route.Path
			return Resolution{Route: route, Navigation: nav}
		}
		nav.Path = next
	}

	return Resolution{
		Route:      errorRoute,
		Navigation: nav,
		Err:        &RouteError{Status: 508, Message: "Too many redirects"},
	}
}

func normalize(nav Navigation) Navigation {
	if nav.Path == "" {
		nav.Path = RootPath
	}
	path, rawQuery, hasQuery := strings.Cut(nav.Path, "?")
	nav.Path = path
	if !hasQuery || nav.Error != nil {
		return nav
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nav
	}
	if msg := q.Get("error"); msg != "" {
		nav.Error = &ErrorContext{Message: msg}
	}
	return nav
}

// Title formats a screen title.
func Title(page string) string {
	return page + " | " + config.AppTitle
}
