package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	portal    service.PortalServicer
	publicURL string
	log       logger.Logger
}

// NewSeoHandler creates a new SeoHandler. publicURL is the site's external base URL.
func NewSeoHandler(ps service.PortalServicer, publicURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{portal: ps, publicURL: strings.TrimRight(publicURL, "/"), log: log}
}

// robotsHandler serves robots.txt. The back-office is kept out of indexes.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /admin")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.publicURL)
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a dynamic sitemap.xml over published articles and categories.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	articles, err := h.portal.SitemapArticles(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to load sitemap articles")
		http.Error(w, "Failed to retrieve articles for sitemap", http.StatusBadGateway)
		return
	}
	categories, err := h.portal.Categories(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to load sitemap categories")
		http.Error(w, "Failed to retrieve categories for sitemap", http.StatusBadGateway)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{{Loc: h.publicURL + "/"}},
	}
	for _, c := range categories {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{Loc: h.publicURL + "/kategorija/" + c.Slug})
	}
	for _, a := range articles {
		u := sitemapURL{Loc: h.publicURL + "/clanak/" + a.Slug}
		if d := a.DisplayDate(); !d.IsZero() {
			u.LastMod = d.Format(sitemapDateFormat)
		}
		sitemap.URLs = append(sitemap.URLs, u)
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		h.log.Error(err, "Failed to encode sitemap")
	}
}
