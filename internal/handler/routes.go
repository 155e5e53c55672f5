package handler

import (
	"io/fs"
	"net/http"

	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Page    *PageHandler
	Seo     *SeoHandler
	Auth    *AuthHandler
	Article *ArticleHandler
	Editor  *EditorHandler
	User    *UserHandler
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, staticFS fs.FS, authzMiddleware func(http.Handler) http.Handler, errorMiddleware func(middleware.AppHandler) http.Handler, sm session.Manager) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Static assets and probes need neither a session nor authorization.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.SettingsMiddleware)
		r.Use(authzMiddleware)

		// Public portal
		r.Method(http.MethodGet, "/", errorMiddleware(h.Page.homeHandler))
		r.Method(http.MethodGet, "/kategorija/{slug}", errorMiddleware(h.Page.categoryHandler))
		r.Method(http.MethodGet, "/clanak/{slug}", errorMiddleware(h.Page.articleHandler))
		r.Get("/robots.txt", h.Seo.robotsHandler)
		r.Get("/sitemap.xml", h.Seo.sitemapHandler)

		// Authentication
		r.Method(http.MethodGet, "/admin/login", errorMiddleware(h.Auth.loginFormHandler))
		r.Method(http.MethodPost, "/admin/login", errorMiddleware(h.Auth.loginHandler))
		r.Method(http.MethodPost, "/admin/logout", errorMiddleware(h.Auth.logoutHandler))

		// Article management
		r.Method(http.MethodGet, "/admin", errorMiddleware(h.Article.listHandler))
		r.Route("/admin/clanci", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(h.Article.listHandler))
			r.Method(http.MethodGet, "/novi", errorMiddleware(h.Editor.newHandler))
			r.Method(http.MethodGet, "/uredi/{id}", errorMiddleware(h.Editor.editHandler))
			r.Method(http.MethodGet, "/{id}/delete", errorMiddleware(h.Article.deleteHandler))
			r.Method(http.MethodPost, "/{id}/delete/confirm", errorMiddleware(h.Article.deleteConfirmHandler))
			r.Method(http.MethodPost, "/{id}/delete/cancel", errorMiddleware(h.Article.deleteCancelHandler))
		})

		// Article editor
		r.Route("/admin/editor/{sid}", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(h.Editor.showHandler))
			r.Get("/progress", h.Editor.progressHandler)
			r.Post("/inline", h.Editor.inlineHandler)
			r.Method(http.MethodPost, "/images", errorMiddleware(h.Editor.uploadHandler))
			r.Method(http.MethodPost, "/save", errorMiddleware(h.Editor.action(h.Editor.save)))
			r.Method(http.MethodPost, "/images/{imgID}/primary", errorMiddleware(h.Editor.action(setPrimary)))
			r.Method(http.MethodPost, "/images/{imgID}/delete", errorMiddleware(h.Editor.action(requestDeleteImage)))
			r.Method(http.MethodPost, "/dialog/confirm", errorMiddleware(h.Editor.action(confirmDialog)))
			r.Method(http.MethodPost, "/dialog/cancel", errorMiddleware(h.Editor.action(cancelDialog)))
			r.Method(http.MethodPost, "/leave", errorMiddleware(h.Editor.action(leave)))
		})

		// Admin accounts, owner only
		r.Route("/admin/admini", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(h.User.listHandler))
			r.Method(http.MethodPost, "/", errorMiddleware(h.User.createHandler))
			r.Method(http.MethodGet, "/novi", errorMiddleware(h.User.newHandler))
			r.Method(http.MethodGet, "/{id}/uredi", errorMiddleware(h.User.editHandler))
			r.Method(http.MethodPost, "/{id}/uredi", errorMiddleware(h.User.updateHandler))
			r.Method(http.MethodPost, "/{id}/status", errorMiddleware(h.User.toggleHandler))
			r.Method(http.MethodGet, "/{id}/delete", errorMiddleware(h.User.deleteHandler))
			r.Method(http.MethodPost, "/{id}/delete/confirm", errorMiddleware(h.User.deleteConfirmHandler))
			r.Method(http.MethodPost, "/{id}/delete/cancel", errorMiddleware(h.User.deleteCancelHandler))
		})
	})

	return r
}
