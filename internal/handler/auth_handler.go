package handler

import (
	"context"
	"net/http"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/auth"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"
)

// Authenticator checks admin credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	auth Authenticator
	sess *session.Auth
	view *view.View
	log  logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(a Authenticator, sess *session.Auth, v *view.View, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: a, sess: sess, view: v, log: log}
}

// loginFormHandler shows the login form, or skips it for signed-in admins.
func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.sess.Authenticated(r.Context()) {
		http.Redirect(w, r, middleware.AdminPath, http.StatusSeeOther)
		return nil
	}
	return render(h.view, h.sess, w, r, "login.html", nil)
}

// loginHandler checks the credentials against the API and starts the admin session.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	res, err := h.auth.Login(r.Context(), username, r.FormValue("password"))
	if err != nil {
		h.log.Info("Failed login for " + username + ": " + err.Error())
		return renderStatus(h.view, h.sess, w, r, http.StatusUnauthorized, "login.html", map[string]interface{}{
			"Error":    auth.LoginMessage(err),
			"Username": username,
		})
	}

	if err := h.sess.SignIn(r.Context(), res.Token, res.User); err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri prijavi", Code: http.StatusInternalServerError}
	}
	h.log.Info("Admin signed in: " + res.User.Username)
	http.Redirect(w, r, middleware.AdminPath, http.StatusSeeOther)
	return nil
}

// logoutHandler ends the admin session.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sess.SignOut(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri odjavi", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	return nil
}
