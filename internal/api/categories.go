package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategory fetches a category by slug.
func (c *Client) GetCategory(ctx context.Context, slug string) (*Category, error) {
	var category Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories/" + url.PathEscape(slug)}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
