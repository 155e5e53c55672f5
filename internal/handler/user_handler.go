package handler

import (
	"errors"
	"fmt"
	"net/http"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/dialog"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/service"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"

	"github.com/go-chi/chi/v5"
)

const usersPath = "/admin/admini"

// UserHandler serves the owner-only admin account management.
type UserHandler struct {
	portal service.PortalServicer
	view   *view.View
	sess   *session.Auth
	log    logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(ps service.PortalServicer, v *view.View, sess *session.Auth, log logger.Logger) *UserHandler {
	return &UserHandler{portal: ps, view: v, sess: sess, log: log}
}

// apiFailure turns a rejected token into the login redirect and anything else into a flash.
func (h *UserHandler) apiFailure(w http.ResponseWriter, r *http.Request, err error, msg string) *middleware.AppError {
	if errors.Is(err, api.ErrUnauthorized) {
		return &middleware.AppError{Error: err, Code: http.StatusUnauthorized}
	}
	h.log.Error(err, msg)
	if m := api.Message(err); m != "" {
		msg = m
	}
	h.sess.SetFlash(r.Context(), "error", msg)
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}

// listHandler renders all accounts.
func (h *UserHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderList(w, r, nil)
}

func (h *UserHandler) renderList(w http.ResponseWriter, r *http.Request, d *dialog.Dialog) *middleware.AppError {
	users, err := h.portal.Users(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri učitavanju admina", Code: http.StatusBadGateway}
	}
	data := map[string]interface{}{"Users": users}
	if d != nil {
		if appErr := addDialog(data, *d); appErr != nil {
			return appErr
		}
	}
	return render(h.view, h.sess, w, r, "users.html", data)
}

// newHandler shows the empty account form.
func (h *UserHandler) newHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return render(h.view, h.sess, w, r, "user_form.html", map[string]interface{}{
		"New":    true,
		"Action": usersPath,
		"Form":   api.NewUser{},
	})
}

// createHandler creates an admin account.
func (h *UserHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := api.NewUser{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
	}
	err := h.portal.CreateUser(r.Context(), in)
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		in.Password = ""
		return renderStatus(h.view, h.sess, w, r, http.StatusUnprocessableEntity, "user_form.html", map[string]interface{}{
			"New":    true,
			"Action": usersPath,
			"Form":   in,
			"Errors": formErr,
		})
	}
	if err != nil {
		return h.apiFailure(w, r, err, "Greška pri čuvanju admina")
	}
	h.sess.SetFlash(r.Context(), "success", "Admin je uspješno kreiran")
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}

func (h *UserHandler) userFromURL(w http.ResponseWriter, r *http.Request) (*api.User, *middleware.AppError) {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return nil, &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	u, err := h.portal.User(r.Context(), id)
	if err != nil {
		return nil, notFoundOr(err, "Greška pri učitavanju admina")
	}
	return u, nil
}

// editHandler shows the form for an existing account. Owners cannot be edited.
func (h *UserHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	u, appErr := h.userFromURL(w, r)
	if appErr != nil {
		return appErr
	}
	if u.IsOwner() {
		http.Redirect(w, r, usersPath, http.StatusSeeOther)
		return nil
	}
	return render(h.view, h.sess, w, r, "user_form.html", map[string]interface{}{
		"Action": fmt.Sprintf("%s/%d/uredi", usersPath, u.ID),
		"User":   u,
		"Form":   api.UserUpdate{FullName: u.FullName, Email: u.Email, IsActive: u.IsActive},
	})
}

// updateHandler saves an existing account.
func (h *UserHandler) updateHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	u, appErr := h.userFromURL(w, r)
	if appErr != nil {
		return appErr
	}
	in := api.UserUpdate{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		IsActive: r.FormValue("isActive") == "on",
	}
	err := h.portal.UpdateUser(r.Context(), u.ID, in)
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		return renderStatus(h.view, h.sess, w, r, http.StatusUnprocessableEntity, "user_form.html", map[string]interface{}{
			"Action": fmt.Sprintf("%s/%d/uredi", usersPath, u.ID),
			"User":   u,
			"Form":   in,
			"Errors": formErr,
		})
	}
	if err != nil {
		return h.apiFailure(w, r, err, "Greška pri čuvanju admina")
	}
	h.sess.SetFlash(r.Context(), "success", "Admin je uspješno ažuriran")
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}

// toggleHandler activates or deactivates an account.
func (h *UserHandler) toggleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	if _, err := h.portal.ToggleUserActive(r.Context(), id); err != nil {
		return h.apiFailure(w, r, err, "Greška pri ažuriranju statusa")
	}
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}

// deleteHandler shows the list with the delete confirmation for one account.
func (h *UserHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	u, appErr := h.userFromURL(w, r)
	if appErr != nil {
		return appErr
	}
	if u.IsOwner() {
		http.Redirect(w, r, usersPath, http.StatusSeeOther)
		return nil
	}
	base := fmt.Sprintf("%s/%d/delete", usersPath, u.ID)
	d := dialog.Confirm(
		"Brisanje admina",
		fmt.Sprintf("Jeste li sigurni da želite obrisati admina \"%s\"?", u.Username),
		base+"/confirm",
		base+"/cancel",
	)
	d.ConfirmText = "Obriši"
	return h.renderList(w, r, &d)
}

// deleteConfirmHandler deletes the account.
func (h *UserHandler) deleteConfirmHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	if err := h.portal.DeleteUser(r.Context(), id); err != nil {
		return h.apiFailure(w, r, err, "Greška pri brisanju admina")
	}
	h.sess.SetFlash(r.Context(), "success", "Admin je uspješno obrisan")
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}

// deleteCancelHandler closes the dialog.
func (h *UserHandler) deleteCancelHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	http.Redirect(w, r, usersPath, http.StatusSeeOther)
	return nil
}
