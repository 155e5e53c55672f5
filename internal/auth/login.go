package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"teretnjaci-web/internal/api"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingCredentials is returned when the username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials is returned when the API rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// LoginAPI is the part of the REST client used to sign in.
type LoginAPI interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Authenticator signs admins in against the REST API's login endpoint.
type Authenticator struct {
	api      LoginAPI
	validate *validator.Validate
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(client LoginAPI) *Authenticator {
	return &Authenticator{api: client, validate: validator.New()}
}

// Login exchanges a username and password for an API token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	username = strings.TrimSpace(username)
	if err := a.validate.Struct(loginForm{Username: username, Password: password}); err != nil {
		return nil, ErrMissingCredentials
	}

	res, err := a.api.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if res.Token == "" {
		return nil, ErrInvalidCredentials
	}
	return res, nil
}

// LoginMessage is the text shown on the login form for err.
func LoginMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "Unesite korisničko ime i lozinku"
	case errors.Is(err, ErrInvalidCredentials):
		if msg := api.Message(err); msg != "" {
			return msg
		}
		return "Pogrešno korisničko ime ili lozinka"
	default:
		return "Greška pri prijavi. Pokušajte ponovo."
	}
}
