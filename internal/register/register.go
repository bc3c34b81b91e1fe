// Package register validates and submits new-account forms.
//
// Submission goes through a Submitter. The default CaptureSubmitter keeps
// the form in memory and logs it; there is no registration endpoint yet.
package register

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/validate"
)

// ErrSubmitting is returned when Submit is called while a submission is in flight.
var ErrSubmitting = errors.New("registration already in progress")

// Form is the registration input. ProfilePicture is an optional file path.
type Form struct {
	Name            string `form:"name" label:"Name" validate:"required"`
	Email           string `form:"email" label:"Email" validate:"required,email_address"`
	Password        string `form:"password" label:"Password" validate:"required,min=8,strong_password"`
	ConfirmPassword string `form:"confirmPassword" label:"Confirm Password" validate:"required,eqfield=Password"`
	ProfilePicture  string `form:"profilePicture" label:"Profile picture" validate:"omitempty,image_file"`
}

// Validate returns nil or validate.FieldErrors.
func (f Form) Validate() error {
	return validate.Struct(f)
}

// Submitter receives forms that passed validation.
type Submitter interface {
	Submit(ctx context.Context, form Form) error
}

// Submission is what CaptureSubmitter keeps: the form minus the passwords.
type Submission struct {
	Name           string
	Email          string
	ProfilePicture string
}

// CaptureSubmitter records submissions without any network I/O.
type CaptureSubmitter struct {
	mu       sync.Mutex
	captured []Submission
}

// Submit records form.
func (c *CaptureSubmitter) Submit(_ context.Context, form Form) error {
	s := Submission{Name: form.Name, Email: form.Email, ProfilePicture: form.ProfilePicture}

	c.mu.Lock()
	c.captured = append(c.captured, s)
	c.mu.Unlock()

	log.Info().
		Str("name", s.Name).
		Str("email", s.Email).
		Bool("profile_picture", s.ProfilePicture != "").
		Msg("register: form captured")
	return nil
}

// submissions returns a copy of everything captured so far.
func (c *CaptureSubmitter) submissions() []Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Submission, len(c.captured))
	copy(out, c.captured)
	return out
}

// Flow runs validation then submission, one at a time.
type Flow struct {
	submitter Submitter

	mu         sync.Mutex
	submitting bool
}

// NewFlow creates a registration flow. A nil submitter means capture-only.
func NewFlow(submitter Submitter) *Flow {
	if submitter == nil {
		submitter = &CaptureSubmitter{}
	}
	return &Flow{submitter: submitter}
}

// Submit validates form and hands it to the submitter. On success the
// user is sent to the login screen.
func (f *Flow) Submit(ctx context.Context, form Form) (router.Navigation, error) {
	if err := form.Validate(); err != nil {
		return router.Navigation{}, err
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return router.Navigation{}, ErrSubmitting
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if err := f.submitter.Submit(ctx, form); err != nil {
		log.Warn().Err(err).Str("email", form.Email).Msg("register: submission failed")
		return router.Navigation{}, err
	}
	return router.To(router.LoginPath), nil
}
