// Package login drives the email/password sign-in screen.
//
// The flow moves Idle → Submitting → Success or Failed. A failed attempt
// drops back to Idle when the next one starts. Nothing leaves the process
// until the credentials pass validation.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/api"
	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/session"
	"github.com/evently/evently-auth/internal/validate"
)

// State is the flow's position.
type State int

const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Messages shown on the login screen.
const (
	MsgLoginFailed          = "Login failed. Please try again."
	MsgSocialAuthFailed     = "Social authentication failed. Please try again or use email/password."
	ErrCodeSocialAuthFailed = "social_auth_failed"
)

// ErrSubmitting is returned when Submit is called while a submission is in flight.
var ErrSubmitting = errors.New("login already in progress")

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error)
}

// Form is the validated shape of the login input.
type Form struct {
	Email    string `form:"email" label:"Email" validate:"required,email_address"`
	Password string `form:"password" label:"Password" validate:"required,min=8"`
}

// Failure is a rejected or failed attempt, ready for display.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

// Flow is the login state machine. It is safe for concurrent use; a second
// Submit while one is running returns ErrSubmitting.
type Flow struct {
	auth  Authenticator
	store *session.Store

	mu      sync.Mutex
	state   State
	message string
}

// NewFlow creates a login flow.
func NewFlow(auth Authenticator, store *session.Store) *Flow {
	return &Flow{auth: auth, store: store}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the error message currently on display, or "".
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Enter prepares the screen for nav. An error context on the navigation is
// displayed; the social_auth_failed code is expanded to its full message.
func (f *Flow) Enter(nav router.Navigation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.message = expandError(nav.ErrorMessage())
}

func expandError(msg string) string {
	if msg == ErrCodeSocialAuthFailed {
		return MsgSocialAuthFailed
	}
	return msg
}

// Submit validates creds, signs in and returns where to go next.
//
// Validation failures return validate.FieldErrors and leave the state Idle
// with no message.
// API failures return a *Failure and leave the state Failed. On success the
// session is stored and the pending redirect marker, if any, is consumed.
func (f *Flow) Submit(ctx context.Context, creds api.Credentials) (router.Navigation, error) {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return router.Navigation{}, ErrSubmitting
	}
	if err := validate.Struct(Form{Email: creds.Email, Password: creds.Password}); err != nil {
		f.state = Idle
		f.message = ""
		f.mu.Unlock()
		return router.Navigation{}, err
	}
	f.state = Submitting
	f.message = ""
	f.mu.Unlock()

	resp, err := f.auth.Login(ctx, creds)
	if err == nil {
		err = f.store.SetSession(resp.Token, session.UserRecord(resp.User))
	}
	if err != nil {
		failure := &Failure{Message: api.MessageOf(err, MsgLoginFailed), Err: err}
		log.Warn().Err(err).Str("email", creds.Email).Msg("login: attempt failed")
		f.finish(Failed, failure.Message)
		return router.Navigation{}, failure
	}

	target, err := f.store.TakeRedirectMarkerOr(router.DashboardPath)
	if err != nil {
		log.Warn().Err(err).Msg("login: could not read redirect marker")
	}

	log.Info().Str("email", creds.Email).Str("target", target).Msg("login: signed in")
	f.finish(Success, "")
	return router.To(target), nil
}

func (f *Flow) finish(state State, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.message = message
}
