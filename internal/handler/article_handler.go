package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/dialog"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/service"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"

	"github.com/go-chi/chi/v5"
)

// ArticleHandler serves the back-office article list and article deletion.
type ArticleHandler struct {
	portal service.PortalServicer
	view   *view.View
	sess   *session.Auth
	log    logger.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(ps service.PortalServicer, v *view.View, sess *session.Auth, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{portal: ps, view: v, sess: sess, log: log}
}

// listURL rebuilds the list location so dialogs and redirects keep the filter and page.
func listURL(filter string, page int) string {
	q := url.Values{}
	if f := service.NormalizeFilter(filter); f != service.FilterAll {
		q.Set("filter", f)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/admin/clanci"
	}
	return "/admin/clanci?" + q.Encode()
}

// listHandler renders the article list. It also serves the admin home.
func (h *ArticleHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderList(w, r, nil)
}

func (h *ArticleHandler) renderList(w http.ResponseWriter, r *http.Request, d *dialog.Dialog) *middleware.AppError {
	filter := service.NormalizeFilter(r.URL.Query().Get("filter"))
	page := pageParam(r)
	articles, err := h.portal.AdminArticles(r.Context(), filter, page)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Greška pri učitavanju članaka", Code: http.StatusBadGateway}
	}
	data := map[string]interface{}{
		"Articles": articles,
		"Filter":   filter,
		"Filters":  []string{service.FilterAll, service.FilterPublished, service.FilterDraft},
	}
	if d != nil {
		if appErr := addDialog(data, *d); appErr != nil {
			return appErr
		}
	}
	return render(h.view, h.sess, w, r, "admin_articles.html", data)
}

// deleteHandler shows the list with the delete confirmation for one article.
func (h *ArticleHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	filter := r.URL.Query().Get("filter")
	page := pageParam(r)
	article, err := h.portal.FindAdminArticle(r.Context(), id, filter, page)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Redirect(w, r, listURL(filter, page), http.StatusSeeOther)
			return nil
		}
		return &middleware.AppError{Error: err, Message: "Greška pri učitavanju članaka", Code: http.StatusBadGateway}
	}

	back := url.Values{}
	back.Set("filter", service.NormalizeFilter(filter))
	back.Set("page", strconv.Itoa(page))
	base := fmt.Sprintf("/admin/clanci/%d/delete", id)
	d := dialog.Confirm(
		"Brisanje članka",
		fmt.Sprintf("Jeste li sigurni da želite obrisati članak \"%s\"?", article.Title),
		base+"/confirm?"+back.Encode(),
		base+"/cancel?"+back.Encode(),
	)
	d.ConfirmText = "Obriši"
	return h.renderList(w, r, &d)
}

// deleteConfirmHandler deletes the article and returns to the list.
func (h *ArticleHandler) deleteConfirmHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	if err := h.portal.DeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return &middleware.AppError{Error: err, Code: http.StatusUnauthorized}
		}
		h.log.Error(err, "Failed to delete article")
		h.sess.SetFlash(r.Context(), "error", "Greška pri brisanju članka")
	} else {
		h.sess.SetFlash(r.Context(), "success", "Članak je uspješno obrisan")
	}
	http.Redirect(w, r, listURL(r.URL.Query().Get("filter"), pageParam(r)), http.StatusSeeOther)
	return nil
}

// deleteCancelHandler closes the dialog without touching the article.
func (h *ArticleHandler) deleteCancelHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	http.Redirect(w, r, listURL(r.URL.Query().Get("filter"), pageParam(r)), http.StatusSeeOther)
	return nil
}
