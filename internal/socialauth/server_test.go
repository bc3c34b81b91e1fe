package socialauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently/evently-auth/internal/router"
	"github.com/evently/evently-auth/internal/session"
)

func newServer(t *testing.T) (*CallbackServer, *session.Store) {
	t.Helper()
	store := session.NewStore(session.NewMemoryStorage())
	return NewCallbackServer("127.0.0.1:0", NewReconciler(store, testDelay)), store
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestCallbackServer_DeliversFirstCallbackOnly(t *testing.T) {
	s, store := newServer(t)
	require.NoError(t, store.SetRedirectMarker("/dashboard"))

	w := get(t, s.Handler(), "/social-auth-callback?token=jwt&user=%7B%22id%22%3A1%7D")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signed in")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSignedIn, out.Kind)
	assert.Equal(t, "/dashboard", out.Navigation.Path)

	sess, err := store.Session()
	require.NoError(t, err)
	assert.Equal(t, session.UserRecord(`{"id":1}`), sess.User)

	// A replayed redirect is not reconciled again.
	require.NoError(t, store.Clear())
	w = get(t, s.Handler(), "/social-auth-callback?token=other&user=u")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Already completed")
	assert.False(t, store.Authenticated())
}

func TestCallbackServer_ErrorPage(t *testing.T) {
	s, store := newServer(t)

	w := get(t, s.Handler(), "/social-auth-callback?error=Access%2520denied")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")

	out, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeProviderError, out.Kind)
	assert.Equal(t, "Access denied", out.Navigation.ErrorMessage())
	assert.False(t, store.Authenticated())
}

func TestCallbackServer_NoRoute(t *testing.T) {
	s, _ := newServer(t)

	w := get(t, s.Handler(), "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Page not found")
	assert.Contains(t, body, "Error Code: 404")
	assert.Contains(t, body, router.Title("Page Not Found"))
}

func TestCallbackServer_EscapesMessage(t *testing.T) {
	s, _ := newServer(t)
	w := get(t, s.Handler(), "/social-auth-callback?error=%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
}

func TestCallbackServer_StartWaitShutdown(t *testing.T) {
	s, _ := newServer(t)
	require.NoError(t, s.Start())

	u := s.URL()
	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/social-auth-callback$`, u)
	assert.NotContains(t, u, ":0/")

	resp, err := http.Get(u + "?token=jwt&user=u")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSignedIn, out.Kind)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestCallbackServer_WaitTimeout(t *testing.T) {
	s, _ := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServer_WaitAfterShutdown(t *testing.T) {
	s, _ := newServer(t)
	require.NoError(t, s.Start())
	require.NoError(t, s.Shutdown(context.Background()))

	_, err := s.Wait(context.Background())
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestCallbackServer_StartFailsOnBusyPort(t *testing.T) {
	first, _ := newServer(t)
	require.NoError(t, first.Start())
	defer func() { _ = first.Shutdown(context.Background()) }()

	busy := NewCallbackServer(first.listener.Addr().String(), first.reconciler)
	assert.Error(t, busy.Start())
}
