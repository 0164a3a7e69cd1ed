package staffclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	Roles     []string  `json:"roles"`
}

// LoginURL derives the login endpoint from the staff endpoint's host.
func (c *Client) LoginURL() string {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return ""
	}
	return base.ResolveReference(&url.URL{Path: "/auth/login"}).String()
}

// Login exchanges credentials for a bearer token. It does not persist it.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	target := c.LoginURL()
	raw, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(raw))
	if err != nil {
		return LoginResponse{}, fmt.Errorf("staffclient: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoginResponse{}, &TransportError{Op: "login", URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return LoginResponse{}, c.statusError("login", 0, resp)
	}
	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LoginResponse{}, &TransportError{Op: "login", URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}
