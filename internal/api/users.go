package api

import (
	"context"
	"net/http"
	"strconv"
)

// ListUsers returns all back-office accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an admin account.
func (c *Client) CreateUser(ctx context.Context, in NewUser) error {
	req, err := c.jsonRequest(http.MethodPost, "/users", in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// UpdateUser changes an account's profile and active flag.
func (c *Client) UpdateUser(ctx context.Context, id int64, in UserUpdate) error {
	req, err := c.jsonRequest(http.MethodPut, userPath(id), in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: userPath(id)}, nil)
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}
