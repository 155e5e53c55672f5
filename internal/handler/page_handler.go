package handler

import (
	"errors"
	"net/http"

	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/service"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"

	"github.com/go-chi/chi/v5"
)

// PageHandler serves the public portal pages.
type PageHandler struct {
	portal service.PortalServicer
	view   *view.View
	sess   *session.Auth
	log    logger.Logger
}

// NewPageHandler creates a new PageHandler with the given dependencies.
func NewPageHandler(ps service.PortalServicer, v *view.View, sess *session.Auth, log logger.Logger) *PageHandler {
	return &PageHandler{portal: ps, view: v, sess: sess, log: log}
}

func notFoundOr(err error, msg string) *middleware.AppError {
	if errors.Is(err, service.ErrNotFound) {
		return &middleware.AppError{Error: err, Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	return &middleware.AppError{Error: err, Message: msg, Code: http.StatusBadGateway}
}

// homeHandler renders the front page, or search results for ?search=.
func (h *PageHandler) homeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	home, err := h.portal.Home(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri učitavanju članaka", Code: http.StatusBadGateway}
	}
	return render(h.view, h.sess, w, r, "home.html", map[string]interface{}{
		"Home":       home,
		"Categories": h.categories(r),
	})
}

// categoryHandler renders one page of a category.
func (h *PageHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.portal.Category(r.Context(), chi.URLParam(r, "slug"), pageParam(r))
	if err != nil {
		return notFoundOr(err, "Greška pri učitavanju kategorije")
	}
	return render(h.view, h.sess, w, r, "category.html", map[string]interface{}{
		"Page":       page,
		"Categories": h.categories(r),
	})
}

// articleHandler renders a published article.
func (h *PageHandler) articleHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	article, err := h.portal.Article(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		return notFoundOr(err, "Greška pri učitavanju članka")
	}
	return render(h.view, h.sess, w, r, "article.html", map[string]interface{}{
		"Article":    article,
		"Categories": h.categories(r),
	})
}

// categories feeds the navigation; a failure only hides the menu.
func (h *PageHandler) categories(r *http.Request) interface{} {
	categories, err := h.portal.Categories(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to load navigation categories")
		return nil
	}
	return categories
}
