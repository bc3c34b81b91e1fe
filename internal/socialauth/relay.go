package socialauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// relayPath is where the relay accepts social sign-in sessions.
const relayPath = "/ws/social-auth"

// ErrNotConnected is returned by WaitForCallback before Connect succeeded.
var ErrNotConnected = errors.New("relay: not connected (call Connect first)")

// RelayClient receives the provider callback through an outbound websocket
// to a relay, for machines where a loopback port is not reachable from the
// browser.
type RelayClient struct {
	relayURL string
	state    string // CSRF token shared with the relay

	mu   sync.Mutex
	conn *websocket.Conn
}

// relayMessage is one frame from the relay.
type relayMessage struct {
	Type         string `json:"type"`
	AuthorizeURL string `json:"authorize_url,omitempty"`
	Token        string `json:"token,omitempty"`
	User         string `json:"user,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewRelayClient creates a client for the relay at relayURL (http, https,
// ws or wss).
func NewRelayClient(relayURL string) (*RelayClient, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	return &RelayClient{
		relayURL: strings.TrimRight(relayURL, "/"),
		state:    hex.EncodeToString(stateBytes),
	}, nil
}

// State returns the CSRF token sent to the relay.
func (rc *RelayClient) State() string {
	return rc.state
}

// Connect opens the websocket and returns the authorization URL the relay
// prepared for provider.
func (rc *RelayClient) Connect(ctx context.Context, provider Provider) (string, error) {
	q := url.Values{}
	q.Set("state", rc.state)
	q.Set("provider", string(provider))
	wsURL := toWebSocketURL(rc.relayURL) + relayPath + "?" + q.Encode()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to relay: %w", err)
	}

	rc.mu.Lock()
	rc.conn = conn
	rc.mu.Unlock()

	msg, err := rc.readMessage(ctx)
	if err != nil {
		_ = rc.Close()
		return "", fmt.Errorf("failed to read session message: %w", err)
	}

	switch {
	case msg.Type == "error":
		_ = rc.Close()
		return "", fmt.Errorf("relay error: %s", msg.Error)
	case msg.Type != "session" || msg.AuthorizeURL == "":
		_ = rc.Close()
		return "", fmt.Errorf("unexpected message type: %s (expected session with authorize_url)", msg.Type)
	}

	return msg.AuthorizeURL, nil
}

// WaitForCallback blocks until the relay forwards the provider redirect and
// returns its parameters in the shape Reconcile expects.
func (rc *RelayClient) WaitForCallback(ctx context.Context) (url.Values, error) {
	msg, err := rc.readMessage(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			return nil, err
		}
		return nil, fmt.Errorf("failed waiting for callback: %w", err)
	}

	switch msg.Type {
	case "callback":
		params := url.Values{}
		for key, value := range map[string]string{"token": msg.Token, "user": msg.User, "error": msg.Error} {
			if value != "" {
				params.Set(key, value)
			}
		}
		return params, nil
	case "error":
		return nil, fmt.Errorf("relay error: %s", msg.Error)
	default:
		return nil, fmt.Errorf("unexpected message type: %s (expected callback)", msg.Type)
	}
}

// Close closes the websocket.
func (rc *RelayClient) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.conn != nil {
		err := rc.conn.Close(websocket.StatusNormalClosure, "done")
		rc.conn = nil
		return err
	}
	return nil
}

func (rc *RelayClient) readMessage(ctx context.Context) (relayMessage, error) {
	rc.mu.Lock()
	conn := rc.conn
	rc.mu.Unlock()

	if conn == nil {
		return relayMessage{}, ErrNotConnected
	}

	var msg relayMessage
	_, data, err := conn.Read(ctx)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decoding relay message: %w", err)
	}
	return msg, nil
}

// toWebSocketURL converts an HTTP(S) URL to a WS(S) URL.
func toWebSocketURL(httpURL string) string {
	if strings.HasPrefix(httpURL, "https://") {
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	}
	if strings.HasPrefix(httpURL, "http://") {
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}
