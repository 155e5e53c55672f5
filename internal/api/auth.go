package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	req, err := c.jsonRequest(http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	var res LoginResult
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Profile returns the account behind the current session token.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/profile"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
