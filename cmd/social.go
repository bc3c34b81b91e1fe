package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/login"
	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/socialauth"
	"github.com/evently/evently-auth/internal/tui"
)

// socialSignIn sends the user to provider p and waits for the redirect back.
// from is recorded as the redirect marker.
func (a *app) socialSignIn(ctx context.Context, p socialauth.Provider, from string) (router.Navigation, error) {
	if a.cfg.Callback.Mode == config.CallbackRelay {
		return a.socialSignInRelay(ctx, p, from)
	}

	srv := socialauth.NewCallbackServer(a.cfg.Callback.ListenAddr, a.reconciler)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("social: callback server failed to start")
		return a.connectFailed(&socialauth.ConnectError{Provider: p, Err: err})
	}
	defer shutdown(srv)

	authURL, err := a.launcher.Begin(p, from)
	if err != nil {
		return a.connectFailed(err)
	}

	a.openProvider(p, authURL)
	tui.PrintInfo("Callback address: " + srv.URL())
	return a.awaitCallback(ctx, srv)
}

func (a *app) socialSignInRelay(ctx context.Context, p socialauth.Provider, from string) (router.Navigation, error) {
	rc, err := socialauth.NewRelayClient(a.cfg.Callback.RelayURL)
	if err != nil {
		return a.connectFailed(&socialauth.ConnectError{Provider: p, Err: err})
	}
	defer func() { _ = rc.Close() }()

	connectCtx, cancel := context.WithTimeout(ctx, config.DefaultRelayConnectTimeout)
	authURL, err := rc.Connect(connectCtx, p)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("social: relay connection failed")
		return a.connectFailed(&socialauth.ConnectError{Provider: p, Err: err})
	}

	if _, err := a.launcher.BeginWith(p, from, authURL); err != nil {
		return a.connectFailed(err)
	}
	a.openProvider(p, authURL)

	waitCtx, cancelWait := context.WithTimeout(ctx, a.cfg.Callback.Wait)
	defer cancelWait()
	params, err := rc.WaitForCallback(waitCtx)
	if err != nil {
		return a.callbackAbandoned(ctx, err)
	}
	return a.follow(ctx, a.reconciler.Reconcile(params))
}

// awaitCallback waits on srv for the provider redirect. A nil srv starts
// and stops a server for the duration of the wait.
func (a *app) awaitCallback(ctx context.Context, srv *socialauth.CallbackServer) (router.Navigation, error) {
	if srv == nil {
		srv = socialauth.NewCallbackServer(a.cfg.Callback.ListenAddr, a.reconciler)
		if err := srv.Start(); err != nil {
			return router.Navigation{}, err
		}
		defer shutdown(srv)
		tui.PrintInfo("Listening on " + srv.URL())
	}

	tui.PrintStep(fmt.Sprintf("Waiting for the provider to redirect back... (%s timeout)", a.cfg.Callback.Wait))

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Callback.Wait)
	defer cancel()
	outcome, err := srv.Wait(waitCtx)
	if err != nil {
		return a.callbackAbandoned(ctx, err)
	}
	return a.follow(ctx, outcome)
}

func (a *app) openProvider(p socialauth.Provider, authURL string) {
	tui.PrintStep(fmt.Sprintf("Opening %s in your browser...", p.DisplayName()))
	if err := browse(authURL); err != nil {
		log.Warn().Err(err).Msg("social: could not open browser")
	}
	fmt.Fprintf(tui.Output, "  %sIf nothing opened, visit:%s %s\n", tui.ColorDim, tui.ColorReset, authURL)
}

// follow shows a reconciled outcome and returns its navigation once its
// delay has passed.
func (a *app) follow(ctx context.Context, outcome socialauth.Outcome) (router.Navigation, error) {
	log.Debug().Str("outcome", outcome.Kind.String()).Str("next", outcome.Navigation.String()).Msg("social: callback reconciled")

	if !outcome.Failed() {
		tui.PrintSuccess("Signed in.")
		return outcome.Navigation, nil
	}

	tui.PrintError(outcome.Message)
	if !a.loop {
		return outcome.Navigation, nil
	}

	tui.PrintInfo(fmt.Sprintf("Returning to sign in in %s...", outcome.Delay))
	var next router.Navigation
	d := router.Schedule(ctx, outcome.Delay, func() {
		log.Debug().Str("next", outcome.Navigation.String()).Msg("social: deferred navigation fired")
		next = outcome.Navigation
	})
	if !d.Wait() {
		return router.Navigation{}, ctx.Err()
	}
	return next, nil
}

// callbackAbandoned handles a wait that ended without a callback. The
// pending marker is discarded so a later sign-in does not reuse it.
func (a *app) callbackAbandoned(ctx context.Context, err error) (router.Navigation, error) {
	if _, takeErr := a.store.TakeRedirectMarker(); takeErr != nil {
		log.Warn().Err(takeErr).Msg("social: could not discard redirect marker")
	}
	if ctx.Err() != nil {
		return router.Navigation{}, ctx.Err()
	}

	log.Warn().Err(err).Msg("social: no callback received")
	if errors.Is(err, context.DeadlineExceeded) {
		tui.PrintWarn("Timed out waiting for the provider.")
	}
	nav := router.To(router.LoginPath).WithError(login.ErrCodeSocialAuthFailed)
	if !a.loop {
		tui.PrintError(login.MsgSocialAuthFailed)
	}
	return nav, nil
}

// connectFailed reports a provider that could not be reached. The user
// stays on the login screen with the error shown.
func (a *app) connectFailed(err error) (router.Navigation, error) {
	var ce *socialauth.ConnectError
	msg := err.Error()
	if errors.As(err, &ce) {
		msg = ce.Error()
	}
	if !a.loop {
		tui.PrintError(msg)
	}
	return router.To(router.LoginPath).WithError(msg), nil
}

func shutdown(srv *socialauth.CallbackServer) {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("social: callback server shutdown")
	}
}
