package socialauth

import (
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/session"
)

// MsgMissingData is shown when the callback carries neither an error nor a
// usable token and user.
const MsgMissingData = "Authentication failed. Missing token or user data."

// OutcomeKind classifies a reconciled callback.
type OutcomeKind int

const (
	// OutcomeProviderError: the provider reported an error.
	OutcomeProviderError OutcomeKind = iota + 1
	// OutcomeSignedIn: the session was stored.
	OutcomeSignedIn
	// OutcomeMissingData: nothing usable arrived, or storing it failed.
	OutcomeMissingData
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeSignedIn:
		return "signed_in"
	case OutcomeMissingData:
		return "missing_data"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling one callback. Navigation should be
// followed after Delay; a zero Delay means immediately.
type Outcome struct {
	Kind       OutcomeKind
	Message    string
	Navigation router.Navigation
	Delay      time.Duration
}

// Failed reports whether the outcome is an error display.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSignedIn
}

// Reconciler turns callback parameters into a session or an error navigation.
type Reconciler struct {
	store *session.Store
	delay time.Duration
}

// NewReconciler creates a Reconciler. delay is how long error outcomes
// are displayed before returning to the login screen.
func NewReconciler(store *session.Store, delay time.Duration) *Reconciler {
	return &Reconciler{store: store, delay: delay}
}

// Reconcile handles the token, user and error parameters of a provider
// redirect. The redirect marker is consumed on every call, whatever the
// outcome. An error parameter takes priority over credentials; credentials
// are stored only when both are present and the user decodes cleanly.
func (r *Reconciler) Reconcile(params url.Values) Outcome {
	target, err := r.store.TakeRedirectMarker()
	if err != nil {
		log.Warn().Err(err).Msg("socialauth: could not read redirect marker")
	}

	if raw := params.Get("error"); raw != "" {
		msg := decodeLenient(raw)
		log.Warn().Str("error", msg).Msg("socialauth: provider returned an error")
		return r.failure(OutcomeProviderError, msg)
	}

	token, rawUser := params.Get("token"), params.Get("user")
	if token == "" || rawUser == "" {
		log.Warn().
			Bool("has_token", token != "").
			Bool("has_user", rawUser != "").
			Msg("socialauth: callback is missing data")
		return r.failure(OutcomeMissingData, MsgMissingData)
	}

	user, err := url.PathUnescape(rawUser)
	if err != nil {
		log.Warn().Err(err).Msg("socialauth: user data could not be decoded")
		return r.failure(OutcomeMissingData, MsgMissingData)
	}
	if err := r.store.SetSession(token, session.UserRecord(user)); err != nil {
		log.Warn().Err(err).Msg("socialauth: could not store session")
		return r.failure(OutcomeMissingData, MsgMissingData)
	}

	log.Info().Str("target", target).Msg("socialauth: signed in")
	return Outcome{Kind: OutcomeSignedIn, Navigation: router.To(target)}
}

func (r *Reconciler) failure(kind OutcomeKind, msg string) Outcome {
	return Outcome{
		Kind:       kind,
		Message:    msg,
		Navigation: router.To(router.LoginPath).WithError(msg),
		Delay:      r.delay,
	}
}

// decodeLenient percent-decodes s, returning it unchanged if it is not
// valid percent-encoding.
func decodeLenient(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}
