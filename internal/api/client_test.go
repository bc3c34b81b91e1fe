package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(session.NewMemoryStorage())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	store := newStore(t)
	require.NoError(t, store.SetSession("tok-123", `{"id":1}`))

	client := NewClient(srv.URL, store)
	body, err := client.Post(context.Background(), "/events", nil)
	require.NoError(t, err)

	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newStore(t))
	_, err := client.Post(context.Background(), "/events", nil)
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestClient_UnauthorizedEvictsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	}))
	defer srv.Close()

	store := newStore(t)
	require.NoError(t, store.SetSession("stale", `{"id":1}`))

	client := NewClient(srv.URL, store)
	_, err := client.Post(context.Background(), "/profile", nil)
	require.Error(t, err)

	assert.True(t, IsUnauthorized(err))
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status())
	assert.Equal(t, "Token expired", apiErr.Message)

	_, ok, err := store.Token()
	require.NoError(t, err)
	assert.False(t, ok, "token must be evicted before the error reaches the caller")

	user, ok, err := store.User()
	require.NoError(t, err)
	assert.True(t, ok, "only the token is evicted")
	assert.Equal(t, session.UserRecord(`{"id":1}`), user)
}

func TestClient_OtherErrorsKeepToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := newStore(t)
	require.NoError(t, store.SetSession("tok", `{}`))

	_, err := NewClient(srv.URL, store).Post(context.Background(), "/admin", nil)
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))

	token, ok, err := store.Token()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Post(context.Background(), "/events", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, WithTimeout(50*time.Millisecond))
	_, err := client.Post(context.Background(), "/slow", nil)
	require.Error(t, err)

	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
}

func TestNewClient_TimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}
	client := NewClient("https://api.example.com", nil, WithHTTPClient(shared), WithTimeout(time.Second))

	assert.Zero(t, shared.Timeout)
	assert.NotSame(t, shared, client.httpClient)
	assert.Equal(t, time.Second, client.httpClient.Timeout)

	client = NewClient("https://api.example.com", nil, WithHTTPClient(nil), WithTimeout(time.Second))
	require.NotNil(t, client.httpClient)
	assert.Equal(t, time.Second, client.httpClient.Timeout)

	client = NewClient("https://api.example.com", nil, WithHTTPClient(shared))
	assert.Same(t, shared, client.httpClient)
}

func TestNewClient_BaseURLFallback(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	assert.Equal(t, config.DefaultAPIBaseURL, NewClient("", nil).BaseURL())

	t.Setenv(config.EnvAPIURL, "https://api.example.com/")
	assert.Equal(t, "https://api.example.com", NewClient("", nil).BaseURL())

	assert.Equal(t, "https://explicit.example.com", NewClient("https://explicit.example.com", nil).BaseURL())
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantToken  string
		wantUser   string
		wantMsg    string
		wantUnauth bool
	}{
		{
			name:      "success keeps user raw",
			status:    http.StatusOK,
			body:      `{"token":"jwt-abc","user":{"id":7,"name":"Ada","tags":["a","b"]}}`,
			wantToken: "jwt-abc",
			wantUser:  `{"id":7,"name":"Ada","tags":["a","b"]}`,
		},
		{
			name:       "rejected credentials",
			status:     http.StatusUnauthorized,
			body:       `{"message":"Invalid credentials"}`,
			wantErr:    true,
			wantMsg:    "Invalid credentials",
			wantUnauth: true,
		},
		{
			name:    "server error without message",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: true,
			wantMsg: "",
		},
		{
			name:    "missing user",
			status:  http.StatusOK,
			body:    `{"token":"jwt-abc"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/login", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL, nil).Login(context.Background(), Credentials{
				Email:    "ada@example.com",
				Password: "s3cret!pass",
				Remember: true,
			})

			assert.Equal(t, map[string]any{
				"email":    "ada@example.com",
				"password": "s3cret!pass",
				"remember": true,
			}, got)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantUnauth, IsUnauthorized(err))
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, MessageOf(err, "fallback"))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, resp.Token)
			assert.JSONEq(t, tt.wantUser, resp.User)
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "nope", MessageOf(&Error{StatusCode: 400, Message: "nope"}, "fallback"))
	assert.Equal(t, "fallback", MessageOf(&Error{StatusCode: 500}, "fallback"))
	assert.Equal(t, "fallback", MessageOf(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "fallback", MessageOf(nil, "fallback"))
}
