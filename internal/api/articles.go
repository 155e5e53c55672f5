package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ArticleQuery filters the article list endpoints. Zero values are omitted.
type ArticleQuery struct {
	Page        int
	PageSize    int
	Category    string // category slug
	Search      string
	IsPublished *bool // admin list only
}

func (q ArticleQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.IsPublished != nil {
		v.Set("isPublished", strconv.FormatBool(*q.IsPublished))
	}
	return v
}

// ListArticles returns published articles for the public site.
func (c *Client) ListArticles(ctx context.Context, q ArticleQuery) (*Page[Article], error) {
	return c.listArticles(ctx, "/articles", q)
}

// ListAdminArticles returns published and draft articles for the back-office.
func (c *Client) ListAdminArticles(ctx context.Context, q ArticleQuery) (*Page[Article], error) {
	return c.listArticles(ctx, "/articles/admin", q)
}

func (c *Client) listArticles(ctx context.Context, path string, q ArticleQuery) (*Page[Article], error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: path, query: q.values()})
	if err != nil {
		return nil, err
	}
	page, err := decodePage[Article](body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode article list: %w", err)
	}
	return page, nil
}

// GetArticleBySlug fetches a published article by its slug.
func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	var a Article
	if err := c.do(ctx, request{method: http.MethodGet, path: "/articles/slug/" + url.PathEscape(slug)}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetArticle fetches an article for editing.
func (c *Client) GetArticle(ctx context.Context, id int64) (*Article, error) {
	var a Article
	if err := c.do(ctx, request{method: http.MethodGet, path: articlePath(id)}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateArticle saves a new article and returns it with its server-assigned ID.
func (c *Client) CreateArticle(ctx context.Context, in ArticleInput) (*Article, error) {
	req, err := c.jsonRequest(http.MethodPost, "/articles", in)
	if err != nil {
		return nil, err
	}
	var a Article
	if err := c.do(ctx, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateArticle replaces the editable fields of an article.
func (c *Client) UpdateArticle(ctx context.Context, id int64, in ArticleInput) (*Article, error) {
	req, err := c.jsonRequest(http.MethodPut, articlePath(id), in)
	if err != nil {
		return nil, err
	}
	var a Article
	if err := c.do(ctx, req, &a); err != nil {
		return nil, err
	}
	if a.ID == 0 {
		a.ID = id
	}
	return &a, nil
}

// DeleteArticle removes an article. Its images are removed by the API.
func (c *Client) DeleteArticle(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: articlePath(id)}, nil)
}

func articlePath(id int64) string {
	return "/articles/" + strconv.FormatInt(id, 10)
}
