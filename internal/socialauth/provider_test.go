package socialauth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently/evently-auth/internal/session"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" GitHub ")
	require.NoError(t, err)
	assert.Equal(t, GitHub, p)

	_, err = ParseProvider("myspace")
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Failed to connect to myspace authentication. Please try again.", ce.Error())
}

func TestLauncher_Begin(t *testing.T) {
	store := session.NewStore(session.NewMemoryStorage())
	l := NewLauncher(store, map[string]string{"google": "https://auth.example.com/google"})

	u, err := l.Begin(Google, "/register")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/google", u)

	marker, err := store.TakeRedirectMarker()
	require.NoError(t, err)
	assert.Equal(t, "/register", marker)
}

func TestLauncher_UnconfiguredProvider(t *testing.T) {
	store := session.NewStore(session.NewMemoryStorage())
	l := NewLauncher(store, map[string]string{})

	_, err := l.Begin(GitHub, "/login")
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Failed to connect to GitHub authentication. Please try again.", err.Error())

	marker, err := store.TakeRedirectMarker()
	require.NoError(t, err)
	assert.Equal(t, session.DefaultRedirectTarget, marker, "marker must not be written")
}

func TestLauncher_StorageFailure(t *testing.T) {
	storage := session.NewMemoryStorage()
	require.NoError(t, storage.Close())
	l := NewLauncher(session.NewStore(storage), nil)

	_, err := l.BeginWith(Google, "/login", "https://auth.example.com/google")
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.True(t, errors.Is(err, session.ErrClosed))
	assert.Equal(t, "Failed to connect to Google authentication. Please try again.", err.Error())
}
