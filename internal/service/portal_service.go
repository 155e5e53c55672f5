package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/logger"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrNotFound is returned when the API has no such article or category.
var ErrNotFound = errors.New("not found")

// Page sizes used by the portal.
const (
	SearchPageSize   = 12
	CategoryPageSize = 12
	AdminPageSize    = 15
	LatestCount      = 7
	PopularPool      = 10
	PopularCount     = 6
	PerCategoryCount = 3
	sitemapPageSize  = 100
	sitemapMaxPages  = 50
)

const (
	keyCategories = "categories"
	keyHome       = "articles:home"
	prefixArticle = "articles:"
)

// PortalAPI is the part of the REST client the portal service uses.
type PortalAPI interface {
	ListArticles(ctx context.Context, q api.ArticleQuery) (*api.Page[api.Article], error)
	ListAdminArticles(ctx context.Context, q api.ArticleQuery) (*api.Page[api.Article], error)
	GetArticleBySlug(ctx context.Context, slug string) (*api.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]api.Category, error)
	GetCategory(ctx context.Context, slug string) (*api.Category, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	CreateUser(ctx context.Context, in api.NewUser) error
	UpdateUser(ctx context.Context, id int64, in api.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error
}

// Cache stores JSON-encoded API responses.
type Cache interface {
	GetJSON(key string, out interface{}) (bool, error)
	SetJSON(key string, v interface{}) error
	DeletePrefix(prefix string) error
}

// PortalService provides the use-cases behind the public site and the
// back-office list pages. The article editor lives in package editor.
type PortalService struct {
	api       PortalAPI
	cache     Cache
	log       logger.Logger
	sanitizer *bluemonday.Policy
	markdown  goldmark.Markdown
}

// NewPortalService creates a PortalService. cache may be nil.
func NewPortalService(client PortalAPI, cache Cache, log logger.Logger) *PortalService {
	if log == nil {
		log = logger.Nop()
	}
	return &PortalService{
		api:   client,
		cache: cache,
		log:   log,
		// UGCPolicy allows basic formatting like links, lists and images while
		// stripping scripts and event handlers.
		sanitizer: bluemonday.UGCPolicy(),
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func notFound(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func (s *PortalService) cached(key string, out interface{}, load func() error) error {
	if s.cache != nil {
		hit, err := s.cache.GetJSON(key, out)
		if err != nil {
			s.log.Warn(fmt.Sprintf("cache read %s failed: %v", key, err))
		}
		if hit {
			return nil
		}
	}
	if err := load(); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(key, out); err != nil {
			s.log.Warn(fmt.Sprintf("cache write %s failed: %v", key, err))
		}
	}
	return nil
}

// InvalidateArticles drops cached article lists after an article changed.
func (s *PortalService) InvalidateArticles() {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(prefixArticle); err != nil {
		s.log.Warn(fmt.Sprintf("cache invalidation failed: %v", err))
	}
}

// Categories returns all categories, served from the cache when possible.
func (s *PortalService) Categories(ctx context.Context) ([]api.Category, error) {
	var categories []api.Category
	err := s.cached(keyCategories, &categories, func() error {
		var err error
		categories, err = s.api.ListCategories(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// CategorySection is a category with its newest articles.
type CategorySection struct {
	Category api.Category
	Articles []api.Article
}

// HomePage is everything the front page shows.
type HomePage struct {
	Search   string
	Results  []api.Article // search results, only when Search is set
	Featured *api.Article
	Latest   []api.Article // the newest articles after the featured one
	Popular  []api.Article
	Sections []CategorySection
}

// Home loads the front page. With a search term it only runs the search.
func (s *PortalService) Home(ctx context.Context, search string) (*HomePage, error) {
	search = strings.TrimSpace(search)
	if search != "" {
		page, err := s.api.ListArticles(ctx, api.ArticleQuery{Search: search, PageSize: SearchPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to search articles: %w", err)
		}
		return &HomePage{Search: search, Results: page.Items}, nil
	}

	var home HomePage
	err := s.cached(keyHome, &home, func() error {
		return s.loadHome(ctx, &home)
	})
	if err != nil {
		return nil, err
	}
	return &home, nil
}

func (s *PortalService) loadHome(ctx context.Context, home *HomePage) error {
	categories, err := s.Categories(ctx)
	if err != nil {
		return err
	}

	latest, err := s.api.ListArticles(ctx, api.ArticleQuery{Page: 1, PageSize: LatestCount})
	if err != nil {
		return fmt.Errorf("failed to load latest articles: %w", err)
	}
	if len(latest.Items) > 0 {
		featured := latest.Items[0]
		home.Featured = &featured
		home.Latest = latest.Items[1:]
	}

	pool, err := s.api.ListArticles(ctx, api.ArticleQuery{Page: 1, PageSize: PopularPool})
	if err != nil {
		return fmt.Errorf("failed to load popular articles: %w", err)
	}
	home.Popular = MostViewed(pool.Items, PopularCount)

	for _, c := range categories {
		page, err := s.api.ListArticles(ctx, api.ArticleQuery{Category: c.Slug, PageSize: PerCategoryCount})
		if err != nil {
			return fmt.Errorf("failed to load articles for category %s: %w", c.Slug, err)
		}
		home.Sections = append(home.Sections, CategorySection{Category: c, Articles: page.Items})
	}
	return nil
}

// MostViewed returns up to n articles ordered by view count, highest first.
// Articles with equal counts keep their original order.
func MostViewed(articles []api.Article, n int) []api.Article {
	sorted := append([]api.Article(nil), articles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ViewCount > sorted[j].ViewCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CategoryPage is one page of a category listing.
type CategoryPage struct {
	Category api.Category
	Articles *api.Page[api.Article]
}

// Category loads a category and one page of its articles.
func (s *PortalService) Category(ctx context.Context, slug string, page int) (*CategoryPage, error) {
	if page < 1 {
		page = 1
	}
	category, err := s.api.GetCategory(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	articles, err := s.api.ListArticles(ctx, api.ArticleQuery{Category: slug, Page: page, PageSize: CategoryPageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to load articles for category %s: %w", slug, err)
	}
	return &CategoryPage{Category: *category, Articles: articles}, nil
}

// ArticleView is an article ready for rendering.
type ArticleView struct {
	api.Article
	Body template.HTML
}

// Article loads a published article and renders its body.
func (s *PortalService) Article(ctx context.Context, slug string) (*ArticleView, error) {
	a, err := s.api.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return &ArticleView{Article: *a, Body: s.RenderContent(a.Content)}, nil
}

// RenderContent turns stored article content into safe HTML. Content that does
// not start with a tag is treated as Markdown.
func (s *PortalService) RenderContent(content string) template.HTML {
	trimmed := strings.TrimSpace(content)
	html := trimmed
	if !strings.HasPrefix(trimmed, "<") {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(trimmed), &buf); err != nil {
			s.log.Warn(fmt.Sprintf("markdown conversion failed: %v", err))
			return template.HTML(template.HTMLEscapeString(trimmed))
		}
		html = buf.String()
	}
	return template.HTML(s.sanitizer.Sanitize(html))
}

// Admin list filters.
const (
	FilterAll       = "all"
	FilterPublished = "published"
	FilterDraft     = "draft"
)

// NormalizeFilter maps unknown filter values to FilterAll.
func NormalizeFilter(f string) string {
	switch f {
	case FilterPublished, FilterDraft:
		return f
	default:
		return FilterAll
	}
}

// AdminArticles returns one page of the back-office article list.
func (s *PortalService) AdminArticles(ctx context.Context, filter string, page int) (*api.Page[api.Article], error) {
	if page < 1 {
		page = 1
	}
	q := api.ArticleQuery{Page: page, PageSize: AdminPageSize}
	switch NormalizeFilter(filter) {
	case FilterPublished:
		published := true
		q.IsPublished = &published
	case FilterDraft:
		published := false
		q.IsPublished = &published
	}
	articles, err := s.api.ListAdminArticles(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin articles: %w", err)
	}
	return articles, nil
}

// FindAdminArticle looks an article up on one page of the admin list, for the delete confirmation.
func (s *PortalService) FindAdminArticle(ctx context.Context, id int64, filter string, page int) (*api.Article, error) {
	articles, err := s.AdminArticles(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	for i := range articles.Items {
		if articles.Items[i].ID == id {
			return &articles.Items[i], nil
		}
	}
	return nil, ErrNotFound
}

// DeleteArticle removes an article and drops cached lists.
func (s *PortalService) DeleteArticle(ctx context.Context, id int64) error {
	if err := s.api.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("failed to delete article %d: %w", id, err)
	}
	s.InvalidateArticles()
	return nil
}

// SitemapArticles returns all published articles, newest first.
func (s *PortalService) SitemapArticles(ctx context.Context) ([]api.Article, error) {
	var all []api.Article
	for page := 1; page <= sitemapMaxPages; page++ {
		res, err := s.api.ListArticles(ctx, api.ArticleQuery{Page: page, PageSize: sitemapPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to load sitemap articles: %w", err)
		}
		all = append(all, res.Items...)
		if page >= res.TotalPages || len(res.Items) == 0 {
			break
		}
	}
	return all, nil
}

// PortalServicer defines the use-cases the HTTP layer relies on.
type PortalServicer interface {
	Categories(ctx context.Context) ([]api.Category, error)
	Home(ctx context.Context, search string) (*HomePage, error)
	Category(ctx context.Context, slug string, page int) (*CategoryPage, error)
	Article(ctx context.Context, slug string) (*ArticleView, error)
	AdminArticles(ctx context.Context, filter string, page int) (*api.Page[api.Article], error)
	FindAdminArticle(ctx context.Context, id int64, filter string, page int) (*api.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	InvalidateArticles()
	SitemapArticles(ctx context.Context) ([]api.Article, error)
	Users(ctx context.Context) ([]api.User, error)
	User(ctx context.Context, id int64) (*api.User, error)
	CreateUser(ctx context.Context, in api.NewUser) error
	UpdateUser(ctx context.Context, id int64, in api.UserUpdate) error
	ToggleUserActive(ctx context.Context, id int64) (*api.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

var _ PortalServicer = (*PortalService)(nil)
