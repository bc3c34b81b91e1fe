package api

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Credentials are the login form values.
type Credentials struct {
	Email    string
	Password string
	Remember bool
}

// LoginResponse is a successful login. User is the raw JSON of the
// response's "user" field; the client does not interpret it.
type LoginResponse struct {
	Token string
	User  string
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	payload, err := loginPayload(creds)
	if err != nil {
		return nil, err
	}

	body, err := c.Post(ctx, "/login", payload)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parsing login response: invalid JSON")
	}
	token := gjson.GetBytes(body, "token")
	user := gjson.GetBytes(body, "user")
	if token.String() == "" || !user.Exists() || user.Type == gjson.Null {
		return nil, fmt.Errorf("login response is missing token or user")
	}

	return &LoginResponse{
		Token: token.String(),
		User:  user.Raw,
	}, nil
}

func loginPayload(creds Credentials) ([]byte, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "email", creds.Email)
	if err == nil {
		payload, err = sjson.SetBytes(payload, "password", creds.Password)
	}
	if err == nil {
		payload, err = sjson.SetBytes(payload, "remember", creds.Remember)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling login payload: %w", err)
	}
	return payload, nil
}
