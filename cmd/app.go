package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/api"
	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/login"
	"github.com/evently/evently-auth/internal/register"
	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/session"
	"github.com/evently/evently-auth/internal/socialauth"
	"github.com/evently/evently-auth/internal/tui"
)

// MsgSessionExpired is shown on the login screen after the API rejects the stored token.
const MsgSessionExpired = "Your session has expired. Please sign in again."

var (
	// errQuit ends the interactive loop normally.
	errQuit = errors.New("quit")
	// errFailed ends a one-shot command with exit status 1; the reason was already printed.
	errFailed = errors.New("command failed")
)

// browse opens URLs; tests replace it.
var browse = openBrowser

// screen renders one route and returns where to go next.
type screen func(ctx context.Context, nav router.Navigation) (router.Navigation, error)

// app wires configuration, storage and flows for one CLI invocation.
type app struct {
	cfg  *config.Config
	opts options

	storage session.Storage
	store   *session.Store
	client  *api.Client

	login      *login.Flow
	register   *register.Flow
	reconciler *socialauth.Reconciler
	launcher   *socialauth.Launcher

	// loop is true in interactive mode: screens hand failures back to the
	// router instead of ending the command.
	loop bool
}

func newApp(cfg *config.Config, opts options) (*app, error) {
	path := ""
	if cfg.Session.Backend != config.BackendMemory {
		p, err := cfg.SessionPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	storage, err := session.Open(cfg.Session.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("opening session storage: %w", err)
	}
	return newAppWithStorage(cfg, opts, storage), nil
}

func newAppWithStorage(cfg *config.Config, opts options, storage session.Storage) *app {
	store := session.NewStore(storage)
	client := api.NewClient(cfg.API.BaseURL, store, api.WithTimeout(cfg.API.Timeout))

	return &app{
		cfg:        cfg,
		opts:       opts,
		storage:    storage,
		store:      store,
		client:     client,
		login:      login.NewFlow(client, store),
		register:   register.NewFlow(&register.CaptureSubmitter{}),
		reconciler: socialauth.NewReconciler(store, cfg.Social.RedirectDelay),
		launcher:   socialauth.NewLauncher(store, cfg.ProviderURLs()),
		loop:       opts.command == "app",
	}
}

// Close releases the session storage.
func (a *app) Close() error {
	return a.storage.Close()
}

// execute runs the selected command.
func (a *app) execute(ctx context.Context) error {
	log.Debug().
		Str("command", a.opts.command).
		Str("api", a.client.BaseURL()).
		Str("session_backend", a.cfg.Session.Backend).
		Msg("app: starting")

	switch a.opts.command {
	case "app":
		return a.run(ctx, router.To(router.RootPath), 0)
	case "login":
		return a.run(ctx, router.To(router.LoginPath), 1)
	case "register":
		return a.run(ctx, router.To(router.RegisterPath), 1)
	case "whoami":
		if !a.store.Authenticated() {
			tui.PrintWarn("Not signed in. Run `evently login` first.")
			return errFailed
		}
		return a.run(ctx, router.To(router.DashboardPath), 1)
	case "social":
		p, err := socialauth.ParseProvider(a.opts.provider)
		if err != nil {
			tui.PrintError(err.Error())
			return errFailed
		}
		from := a.opts.from
		if from == "" {
			from = router.LoginPath
		}
		nav, err := a.socialSignIn(ctx, p, from)
		if err != nil {
			return err
		}
		if nav.Error != nil {
			return errFailed
		}
		return nil
	case "logout":
		return a.logout()
	default:
		return fmt.Errorf("unknown command: %s", a.opts.command)
	}
}

// run drives the router from start. maxScreens bounds how many screens are
// shown; zero means until the user quits.
func (a *app) run(ctx context.Context, start router.Navigation, maxScreens int) error {
	nav := start
	for shown := 0; maxScreens == 0 || shown < maxScreens; shown++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := router.Resolve(nav, a.store.Authenticated())
		log.Debug().Str("requested", nav.String()).Str("route", res.Route.Path).Msg("app: navigate")

		fmt.Fprintln(tui.Output)
		tui.PrintHeader(router.Title(res.Route.Title))

		var next router.Navigation
		var err error
		if res.Err != nil {
			next, err = a.errorScreen(ctx, res.Err)
		} else {
			next, err = a.screens()[res.Route.Path](ctx, res.Navigation)
		}

		next, err = a.handleScreenError(next, err)
		if err != nil {
			return err
		}
		nav = next
	}
	return nil
}

// handleScreenError maps screen errors to navigations in interactive mode.
// A rejected token goes back to login; quitting, running out of input and
// cancellation end the loop; anything else is shown on the error screen.
func (a *app) handleScreenError(next router.Navigation, err error) (router.Navigation, error) {
	if err == nil {
		return next, nil
	}
	if !a.loop {
		return next, err
	}

	switch {
	case api.IsUnauthorized(err):
		return router.To(router.LoginPath).WithError(MsgSessionExpired), nil
	case errors.Is(err, errQuit), errors.Is(err, tui.ErrNoInput), errors.Is(err, context.Canceled):
		return next, err
	}

	log.Error().Err(err).Msg("app: screen failed")
	return router.Failed(err), nil
}

func (a *app) screens() map[string]screen {
	return map[string]screen{
		router.LoginPath:          a.loginScreen,
		router.RegisterPath:       a.registerScreen,
		router.DashboardPath:      a.dashboardScreen,
		router.SocialCallbackPath: a.callbackScreen,
	}
}

func (a *app) logout() error {
	if !a.store.Authenticated() {
		tui.PrintInfo("No active session.")
		return nil
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	tui.PrintSuccess("Signed out.")
	return nil
}
