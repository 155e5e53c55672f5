// Package session stores the signed-in admin in the scs session: the API
// bearer token, the account identity and one-shot flash messages.
package session

import (
	"context"
	"net/http"

	"teretnjaci-web/internal/api"

	"golang.org/x/oauth2"
)

// Manager is an interface that abstracts the session management implementation.
// *scs.SessionManager satisfies it.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	PopString(ctx context.Context, key string) string
	Exists(ctx context.Context, key string) bool
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

// Session keys.
const (
	keyToken     = "api_token"
	keySubject   = "user_subject"
	keyName      = "user_name"
	keyRole      = "user_role"
	keyFlash     = "flash"
	keyFlashKind = "flash_kind"
)

// Identity is the signed-in account as remembered by the session.
type Identity struct {
	Subject string // username
	Name    string
	Role    string // api.RoleOwner or api.RoleAdmin
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // success, error or info
	Message string
}

// Auth keeps the admin's API credentials in the session. It implements
// api.Session, so the API client reads the bearer token from the request
// context on every call.
type Auth struct {
	sm Manager
}

var _ api.Session = (*Auth)(nil)

// NewAuth wraps a session manager.
func NewAuth(sm Manager) *Auth {
	return &Auth{sm: sm}
}

// SignIn stores the token and identity, rotating the session token first.
func (a *Auth) SignIn(ctx context.Context, token string, u api.User) error {
	if err := a.sm.RenewToken(ctx); err != nil {
		return err
	}
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	a.sm.Put(ctx, keyToken, token)
	a.sm.Put(ctx, keySubject, u.Username)
	a.sm.Put(ctx, keyName, name)
	a.sm.Put(ctx, keyRole, u.Role)
	return nil
}

// SignOut destroys the whole session.
func (a *Auth) SignOut(ctx context.Context) error {
	return a.sm.Destroy(ctx)
}

// Identity returns the signed-in account, or nil for anonymous visitors.
func (a *Auth) Identity(ctx context.Context) *Identity {
	if a.sm.GetString(ctx, keyToken) == "" {
		return nil
	}
	return &Identity{
		Subject: a.sm.GetString(ctx, keySubject),
		Name:    a.sm.GetString(ctx, keyName),
		Role:    a.sm.GetString(ctx, keyRole),
	}
}

// Authenticated reports whether the session holds an API token.
func (a *Auth) Authenticated(ctx context.Context) bool {
	return a.sm.GetString(ctx, keyToken) != ""
}

// Token implements api.Session.
func (a *Auth) Token(ctx context.Context) (*oauth2.Token, error) {
	tok := a.sm.GetString(ctx, keyToken)
	if tok == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// Clear implements api.Session. It forgets the credentials but keeps the
// session itself so a flash can still reach the login page.
func (a *Auth) Clear(ctx context.Context) {
	for _, k := range []string{keyToken, keySubject, keyName, keyRole} {
		a.sm.Remove(ctx, k)
	}
}

// SetFlash queues a message for the next page.
func (a *Auth) SetFlash(ctx context.Context, kind, msg string) {
	a.sm.Put(ctx, keyFlash, msg)
	a.sm.Put(ctx, keyFlashKind, kind)
}

// PopFlash returns and removes the queued message, if any.
func (a *Auth) PopFlash(ctx context.Context) *Flash {
	if !a.sm.Exists(ctx, keyFlash) {
		return nil
	}
	f := &Flash{Message: a.sm.PopString(ctx, keyFlash), Kind: a.sm.PopString(ctx, keyFlashKind)}
	if f.Kind == "" {
		f.Kind = "info"
	}
	return f
}
