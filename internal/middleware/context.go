package middleware

import (
	"context"

	"teretnjaci-web/internal/auth"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// UserInfo represents the essential user information stored in the session and request context.
type UserInfo struct {
	Subject  string // enforcer subject: anonymous, admin or owner
	Username string
	Name     string
	Role     string
}

// Authenticated reports whether the request comes from a signed-in admin.
func (u *UserInfo) Authenticated() bool {
	return u.Subject != auth.SubjectAnonymous
}

// IsOwner reports whether the admin holds the owner role.
func (u *UserInfo) IsOwner() bool {
	return u.Subject == auth.SubjectOwner
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{Subject: auth.SubjectAnonymous}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
