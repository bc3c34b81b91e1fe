package session

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultRedirectTarget is returned by TakeRedirectMarker when no marker is pending.
const DefaultRedirectTarget = "/"

// UserRecord is the serialized user identity as delivered by the server or
// identity provider. It is stored and returned verbatim, never parsed.
type UserRecord string

// Session is an authenticated identity: both fields are always set.
type Session struct {
	Token string
	User  UserRecord
}

// Store is the typed view of a Storage used by the authentication flows.
type Store struct {
	storage Storage
}

// NewStore wraps storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// SetSession writes token and user in a single storage batch. Empty values
// are rejected before anything is written.
func (s *Store) SetSession(token string, user UserRecord) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	if strings.TrimSpace(string(user)) == "" {
		return ErrEmptyUser
	}
	if err := s.storage.Set(map[string]string{
		KeyToken: token,
		KeyUser:  string(user),
	}); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Token returns the stored bearer token, if any.
func (s *Store) Token() (string, bool, error) {
	return s.storage.Get(KeyToken)
}

// ClearToken removes only the token. Used when the API rejects it.
func (s *Store) ClearToken() error {
	if err := s.storage.Delete(KeyToken); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	log.Debug().Msg("session: token evicted")
	return nil
}

// User returns the stored user record, if any.
func (s *Store) User() (UserRecord, bool, error) {
	v, ok, err := s.storage.Get(KeyUser)
	return UserRecord(v), ok, err
}

// Session returns the current session or ErrNoSession when either half is missing.
func (s *Store) Session() (Session, error) {
	token, ok, err := s.Token()
	if err != nil {
		return Session{}, err
	}
	if !ok || token == "" {
		return Session{}, ErrNoSession
	}
	user, ok, err := s.User()
	if err != nil {
		return Session{}, err
	}
	if !ok || user == "" {
		return Session{}, ErrNoSession
	}
	return Session{Token: token, User: user}, nil
}

// Authenticated reports whether a complete session is stored.
// Storage errors count as unauthenticated.
func (s *Store) Authenticated() bool {
	_, err := s.Session()
	return err == nil
}

// Clear removes token and user together (logout).
func (s *Store) Clear() error {
	if err := s.storage.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// SetRedirectMarker records the path to come back to after an identity-provider round trip.
func (s *Store) SetRedirectMarker(path string) error {
	if path == "" {
		path = DefaultRedirectTarget
	}
	if err := s.storage.Set(map[string]string{KeyRedirectFrom: path}); err != nil {
		return fmt.Errorf("saving redirect marker: %w", err)
	}
	return nil
}

// TakeRedirectMarker returns and deletes the pending marker, or "/" if there is none.
func (s *Store) TakeRedirectMarker() (string, error) {
	return s.TakeRedirectMarkerOr(DefaultRedirectTarget)
}

// TakeRedirectMarkerOr is TakeRedirectMarker with a caller-chosen default.
func (s *Store) TakeRedirectMarkerOr(def string) (string, error) {
	v, ok, err := s.storage.Take(KeyRedirectFrom)
	if err != nil {
		return def, fmt.Errorf("taking redirect marker: %w", err)
	}
	if !ok || v == "" {
		return def, nil
	}
	return v, nil
}
