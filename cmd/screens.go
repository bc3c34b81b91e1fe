package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/evently/evently-auth/internal/api"
	"github.com/evently/evently-auth/internal/login"
	"github.com/evently/evently-auth/internal/register"
	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/socialauth"
	"github.com/evently/evently-auth/internal/tui"
	"github.com/evently/evently-auth/internal/validate"
)

// =============================================================================
// LOGIN
// =============================================================================

func (a *app) loginScreen(ctx context.Context, nav router.Navigation) (router.Navigation, error) {
	a.login.Enter(nav)
	if msg := a.login.Message(); msg != "" {
		tui.PrintError(msg)
		fmt.Fprintln(tui.Output)
	}

	if !a.loop {
		return a.passwordLogin(ctx)
	}

	items := []tui.MenuItem{
		{Label: "Sign in with email and password"},
		{Label: "Continue with Google", Description: "opens your browser"},
		{Label: "Continue with GitHub", Description: "opens your browser"},
		{Label: "Create an account"},
		{Label: "Quit"},
	}
	choice, err := tui.SelectMenu("Welcome back! Sign in to continue your journey", items)
	if err != nil {
		return router.Navigation{}, err
	}

	switch choice {
	case 0:
		return a.passwordLogin(ctx)
	case 1:
		return a.socialSignIn(ctx, socialauth.Google, router.LoginPath)
	case 2:
		return a.socialSignIn(ctx, socialauth.GitHub, router.LoginPath)
	case 3:
		return router.To(router.RegisterPath), nil
	default:
		return router.Navigation{}, errQuit
	}
}

func (a *app) passwordLogin(ctx context.Context) (router.Navigation, error) {
	creds := api.Credentials{Email: a.opts.email, Remember: a.opts.remember}

	var err error
	if creds.Email == "" {
		if creds.Email, err = tui.PromptInput("Email", ""); err != nil {
			return router.Navigation{}, err
		}
	}
	if creds.Password, err = tui.PromptSecret("Password"); err != nil {
		return router.Navigation{}, err
	}
	if a.loop {
		if creds.Remember, err = tui.Confirm("Remember me?", false); err != nil {
			return router.Navigation{}, err
		}
	}

	tui.PrintStep("Signing in...")
	next, err := a.login.Submit(ctx, creds)

	var fieldErrs validate.FieldErrors
	var failure *login.Failure
	switch {
	case errors.As(err, &fieldErrs):
		printFieldErrors(fieldErrs)
		return a.stayOn(router.To(router.LoginPath))
	case errors.As(err, &failure):
		if !a.loop {
			tui.PrintError(failure.Message)
			return router.Navigation{}, errFailed
		}
		return router.To(router.LoginPath).WithError(failure.Message), nil
	case err != nil:
		return router.Navigation{}, err
	}

	tui.PrintSuccess("Signed in as " + creds.Email)
	return next, nil
}

// =============================================================================
// REGISTER
// =============================================================================

func (a *app) registerScreen(ctx context.Context, _ router.Navigation) (router.Navigation, error) {
	tui.PrintInfo("Create Account! Sign up to continue your journey")
	fmt.Fprintln(tui.Output)

	var form register.Form
	var err error
	if form.Name, err = tui.PromptInput("Full Name", ""); err != nil {
		return router.Navigation{}, err
	}
	if form.Email, err = tui.PromptInput("Email Address", ""); err != nil {
		return router.Navigation{}, err
	}
	if form.Password, err = tui.PromptSecret("Password"); err != nil {
		return router.Navigation{}, err
	}
	if form.ConfirmPassword, err = tui.PromptSecret("Confirm Password"); err != nil {
		return router.Navigation{}, err
	}
	if form.ProfilePicture, err = tui.PromptInput("Profile picture (optional path)", ""); err != nil {
		return router.Navigation{}, err
	}

	next, err := a.register.Submit(ctx, form)
	var fieldErrs validate.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		printFieldErrors(fieldErrs)
		return a.stayOn(router.To(router.RegisterPath))
	case err != nil:
		return router.Navigation{}, err
	}

	tui.PrintSuccess("Registration received for " + form.Email)
	tui.PrintInfo("Sign in once your account is active.")
	return next, nil
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (a *app) dashboardScreen(_ context.Context, _ router.Navigation) (router.Navigation, error) {
	sess, err := a.store.Session()
	if err != nil {
		return router.To(router.LoginPath), nil
	}

	user := gjson.Parse(string(sess.User))
	tui.SessionStatus{
		SignedIn: true,
		User:     displayName(user),
		Token:    sess.Token,
		Backend:  a.cfg.Session.Backend,
	}.Render()
	fmt.Fprintln(tui.Output)

	if user.IsObject() || user.IsArray() {
		fmt.Fprintln(tui.Output, user.Get("@pretty").String())
	} else {
		tui.PrintField("user", string(sess.User))
	}

	if !a.loop {
		return router.Navigation{}, nil
	}

	choice, err := tui.SelectMenu("What next?", []tui.MenuItem{
		{Label: "Sign out"},
		{Label: "Quit"},
	})
	if err != nil {
		return router.Navigation{}, err
	}
	if choice == 0 {
		if err := a.logout(); err != nil {
			return router.Navigation{}, err
		}
		return router.To(router.LoginPath), nil
	}
	return router.Navigation{}, errQuit
}

// displayName picks something readable from an opaque user record.
func displayName(user gjson.Result) string {
	for _, path := range []string{"name", "displayName", "email", "login", "username"} {
		if v := user.Get(path).String(); v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// SOCIAL CALLBACK
// =============================================================================

// callbackScreen waits for a provider redirect that was started outside
// this client, for example from the web front end.
func (a *app) callbackScreen(ctx context.Context, _ router.Navigation) (router.Navigation, error) {
	tui.PrintStep("Completing authentication...")
	return a.awaitCallback(ctx, nil)
}

// =============================================================================
// ERROR
// =============================================================================

func (a *app) errorScreen(_ context.Context, rerr *router.RouteError) (router.Navigation, error) {
	fmt.Fprintf(tui.Output, "%sOops!%s\n", tui.ColorBold, tui.ColorReset)
	tui.PrintError(rerr.Message)
	tui.PrintField("Error Code", fmt.Sprint(rerr.Status))
	fmt.Fprintln(tui.Output)

	if !a.loop {
		return router.Navigation{}, errFailed
	}

	choice, err := tui.SelectMenu("", []tui.MenuItem{{Label: "Go to Home"}, {Label: "Quit"}})
	if err != nil {
		return router.Navigation{}, err
	}
	if choice == 0 {
		return router.To(router.RootPath), nil
	}
	return router.Navigation{}, errQuit
}

// =============================================================================
// HELPERS
// =============================================================================

// stayOn re-shows nav in interactive mode and fails the command otherwise.
func (a *app) stayOn(nav router.Navigation) (router.Navigation, error) {
	if !a.loop {
		return router.Navigation{}, errFailed
	}
	return nav, nil
}

func printFieldErrors(errs validate.FieldErrors) {
	for _, fe := range errs {
		tui.PrintError(fe.Message)
	}
}
