package socialauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRelay accepts one websocket and writes frames in order.
func fakeRelay(t *testing.T, frames ...string) (*httptest.Server, chan *http.Request) {
	t.Helper()
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.CloseNow() }()

		ctx := r.Context()
		for _, f := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection until the client closes it.
		_, _, _ = conn.Read(ctx)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRelayClient_Callback(t *testing.T) {
	srv, seen := fakeRelay(t,
		`{"type":"session","authorize_url":"https://accounts.example.com/o/oauth2/auth?x=1"}`,
		`{"type":"callback","token":"jwt","user":"%7B%22id%22%3A1%7D"}`,
	)

	rc, err := NewRelayClient(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	authURL, err := rc.Connect(testCtx(t), Google)
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/o/oauth2/auth?x=1", authURL)

	req := <-seen
	assert.Equal(t, relayPath, req.URL.Path)
	assert.Equal(t, rc.State(), req.URL.Query().Get("state"))
	assert.Equal(t, "google", req.URL.Query().Get("provider"))
	assert.Len(t, rc.State(), 64)

	params, err := rc.WaitForCallback(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "jwt", params.Get("token"))
	assert.Equal(t, "%7B%22id%22%3A1%7D", params.Get("user"))
	_, hasError := params["error"]
	assert.False(t, hasError)

	r, store := newReconciler(t)
	out := r.Reconcile(params)
	sess, err := store.Session()
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(sess.User))
	assert.Equal(t, OutcomeSignedIn, out.Kind)
}

func TestRelayClient_ProviderErrorInCallback(t *testing.T) {
	srv, _ := fakeRelay(t,
		`{"type":"session","authorize_url":"https://github.example.com/login"}`,
		`{"type":"callback","error":"access_denied"}`,
	)

	rc, err := NewRelayClient(srv.URL)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	_, err = rc.Connect(testCtx(t), GitHub)
	require.NoError(t, err)

	params, err := rc.WaitForCallback(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", params.Get("error"))
}

func TestRelayClient_ErrorFrames(t *testing.T) {
	tests := []struct {
		name      string
		frames    []string
		connectOK bool
		wantErr   string
	}{
		{"error on connect", []string{`{"type":"error","error":"state rejected"}`}, false, "state rejected"},
		{"session without url", []string{`{"type":"session"}`}, false, "unexpected message type"},
		{"error while waiting", []string{`{"type":"session","authorize_url":"u"}`, `{"type":"error","error":"expired"}`}, true, "expired"},
		{"unexpected frame", []string{`{"type":"session","authorize_url":"u"}`, `{"type":"token","token":"t"}`}, true, "expected callback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeRelay(t, tt.frames...)
			rc, err := NewRelayClient(srv.URL)
			require.NoError(t, err)
			defer func() { _ = rc.Close() }()

			_, err = rc.Connect(testCtx(t), Google)
			if !tt.connectOK {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			_, err = rc.WaitForCallback(testCtx(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRelayClient_WaitBeforeConnect(t *testing.T) {
	rc, err := NewRelayClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = rc.WaitForCallback(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, rc.Close())
}

func TestToWebSocketURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://relay.example.com", "wss://relay.example.com"},
		{"http://localhost:8000", "ws://localhost:8000"},
		{"wss://relay.example.com", "wss://relay.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toWebSocketURL(tt.in))
	}
}
