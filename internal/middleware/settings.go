package middleware

import (
	"net/http"
	"time"

	"teretnjaci-web/internal/view"
)

const themeCookie = "theme"

// SettingsMiddleware resolves the visitor's color theme. A "theme" query
// parameter switches it and is remembered in a cookie for a year.
func SettingsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := view.ThemeDark
		if c, err := r.Cookie(themeCookie); err == nil && c.Value == view.ThemeLight {
			theme = view.ThemeLight
		}

		if q := r.URL.Query().Get("theme"); q == view.ThemeDark || q == view.ThemeLight {
			theme = q
			http.SetCookie(w, &http.Cookie{
				Name:     themeCookie,
				Value:    theme,
				Path:     "/",
				MaxAge:   int(365 * 24 * time.Hour / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(view.WithTheme(r.Context(), theme)))
	})
}
