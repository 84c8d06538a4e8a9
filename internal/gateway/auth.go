package gateway

import (
	"context"
	"net/http"
)

// Credentials is an email/password pair for login and signup.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Session is a successful login response.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Auth talks to the signup and login endpoints. Unlike the other gateways
// it runs unauthenticated.
type Auth struct {
	client *Client
}

// NewAuth returns an Auth gateway over the shared client.
func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

// Signup registers a new account.
func (g *Auth) Signup(ctx context.Context, creds Credentials) error {
	return g.client.send(ctx, http.MethodPost, "/api/v1/auth/signup", creds, nil)
}

// Login exchanges credentials for an access token.
func (g *Auth) Login(ctx context.Context, creds Credentials) (*Session, error) {
	var session Session
	if err := g.client.send(ctx, http.MethodPost, "/api/v1/auth/login", creds, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
