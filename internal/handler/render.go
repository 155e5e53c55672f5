package handler

import (
	"net/http"
	"strconv"

	"teretnjaci-web/internal/dialog"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"
)

// render executes a page template with the data every page shares: the
// current user and the pending flash message.
func render(v *view.View, sess *session.Auth, w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["User"] = middleware.GetUserInfo(r.Context())
	if sess != nil {
		if f := sess.PopFlash(r.Context()); f != nil {
			data["Flash"] = f
		}
	}
	if err := v.Render(w, r, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri prikazu stranice", Code: http.StatusInternalServerError}
	}
	return nil
}

// pageParam reads the 1-based "page" query parameter.
func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

func idParam(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// renderStatus is render with a non-200 status code, used for re-displayed forms.
func renderStatus(v *view.View, sess *session.Auth, w http.ResponseWriter, r *http.Request, code int, name string, data map[string]interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	return render(v, sess, w, r, name, data)
}

// addDialog renders d into data["Dialog"].
func addDialog(data map[string]interface{}, d dialog.Dialog) *middleware.AppError {
	html, err := d.Render()
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri prikazu stranice", Code: http.StatusInternalServerError}
	}
	if html != "" {
		data["Dialog"] = html
	}
	return nil
}
