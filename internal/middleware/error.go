package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/view"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Error is a middleware that converts handler errors into user-friendly error pages.
// An error caused by a rejected API token ends in a redirect to the login page;
// the API client has already cleared the session by then.
func Error(log logger.Logger, v *view.View) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					renderError(w, r, v, http.StatusInternalServerError, "Došlo je do greške na serveru")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if errors.Is(appErr.Error, api.ErrUnauthorized) {
				log.Warn(fmt.Sprintf("API rejected the session token on %s", r.URL.Path))
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else {
				log.Debug(fmt.Sprintf("%d %s: %s", appErr.Code, r.URL.Path, appErr.Message))
			}
			renderError(w, r, v, appErr.Code, appErr.Message)
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request, v *view.View, code int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	data := map[string]interface{}{
		"StatusCode": code,
		"StatusText": message,
		"User":       GetUserInfo(r.Context()),
	}
	if err := v.Render(w, r, "error.html", data); err != nil {
		fmt.Fprintf(w, "%d %s", code, message)
	}
}
