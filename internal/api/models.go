package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Article is a news article as returned by the API. ID is zero until the article has been saved.
type Article struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Summary         string     `json:"summary"`
	CategoryID      int64      `json:"categoryId"`
	CategoryName    string     `json:"categoryName"`
	CategorySlug    string     `json:"categorySlug"`
	IsPublished     bool       `json:"isPublished"`
	AuthorName      string     `json:"authorName"`
	ViewCount       int        `json:"viewCount"`
	PrimaryImageURL string     `json:"primaryImageUrl"`
	CreatedAt       Timestamp  `json:"createdAt"`
	PublishedAt     *Timestamp `json:"publishedAt"`
	Images          []Image    `json:"images"`
}

// DisplayDate is the publication date, or the creation date for drafts.
func (a Article) DisplayDate() time.Time {
	if a.PublishedAt != nil && !a.PublishedAt.IsZero() {
		return a.PublishedAt.Time
	}
	return a.CreatedAt.Time
}

// ArticleInput is the payload for creating and updating articles.
type ArticleInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Summary     string `json:"summary"`
	CategoryID  int64  `json:"categoryId"`
	IsPublished bool   `json:"isPublished"`
}

// Image is a picture attached to an article.
type Image struct {
	ID        int64  `json:"id"`
	FileName  string `json:"fileName"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// InlineImage is an image hosted for embedding into article content.
type InlineImage struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// Category is read-only reference data.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Roles known to the API.
const (
	RoleOwner = "Owner"
	RoleAdmin = "Admin"
)

// User is a back-office account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// IsOwner reports whether the user holds the owner role.
func (u User) IsOwner() bool {
	return u.Role == RoleOwner
}

// NewUser is the payload for creating a user.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// UserUpdate is the payload for updating a user.
type UserUpdate struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	IsActive bool   `json:"isActive"`
}

// Credentials are posted to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Page is one page of a paged list endpoint.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
}

// Timestamp accepts both RFC 3339 and the zone-less ISO layout the API emits.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
