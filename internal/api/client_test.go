package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeSession is an in-memory Session.
type fakeSession struct {
	token   string
	cleared bool
}

func (s *fakeSession) Token(ctx context.Context) (*oauth2.Token, error) {
	if s.token == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: s.token}, nil
}

func (s *fakeSession) Clear(ctx context.Context) {
	s.cleared = true
	s.token = ""
}

func newTestClient(t *testing.T, h http.HandlerFunc, sess Session, onUnauthorized func(context.Context)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", Options{Session: sess, OnUnauthorized: onUnauthorized})
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"data":[]}`))
	}, &fakeSession{token: "abc"}, nil)

	if _, err := c.ListCategories(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("want Authorization 'Bearer abc'; got %q", gotAuth)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}, &fakeSession{}, nil)

	if _, err := c.ListCategories(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("want no Authorization header; got %q", gotAuth)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	sess := &fakeSession{token: "expired"}
	hookCalled := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Token expired"}`))
	}, sess, func(context.Context) { hookCalled = true })

	_, err := c.GetArticle(context.Background(), 7)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized; got %v", err)
	}
	if !sess.cleared {
		t.Error("expected session to be cleared")
	}
	if !hookCalled {
		t.Error("expected unauthorized hook to be called")
	}
	if Message(err) != "Token expired" {
		t.Errorf("want message 'Token expired'; got %q", Message(err))
	}
}

func TestClient_EnvelopeFallback(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"wrapped", `{"success":true,"data":{"id":7,"title":"A","createdAt":"2024-05-01T10:00:00"}}`},
		{"bare", `{"id":7,"title":"A","createdAt":"2024-05-01T10:00:00Z"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/articles/7" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(tc.body))
			}, nil, nil)

			a, err := c.GetArticle(context.Background(), 7)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.ID != 7 || a.Title != "A" {
				t.Errorf("unexpected article: %+v", a)
			}
			if a.CreatedAt.Year() != 2024 {
				t.Errorf("expected createdAt to be parsed, got %v", a.CreatedAt)
			}
		})
	}
}

func TestClient_ErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Naslov već postoji"}`))
	}, nil, nil)

	_, err := c.CreateArticle(context.Background(), ArticleInput{Title: "A"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *Error; got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("want status 400; got %d", apiErr.Status)
	}
	if apiErr.Message != "Naslov već postoji" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("400 must not match ErrUnauthorized")
	}
}

func TestClient_SuccessFalseIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Nije dozvoljeno"}`))
	}, nil, nil)

	err := c.SetPrimaryImage(context.Background(), 3)
	if Message(err) != "Nije dozvoljeno" {
		t.Errorf("want envelope message; got %v", err)
	}
}

func TestClient_ListArticlesQueryAndPaging(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":[{"id":1},{"id":2}],"page":2,"pageSize":15,"totalPages":4,"totalCount":50}`))
	}, nil, nil)

	published := false
	page, err := c.ListAdminArticles(context.Background(), ArticleQuery{Page: 2, PageSize: 15, IsPublished: &published})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "isPublished=false&page=2&pageSize=15" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(page.Items) != 2 || page.TotalPages != 4 || page.Page != 2 || page.TotalCount != 50 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestClient_ListArticlesBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1},{"id":2},{"id":3}]`))
	}, nil, nil)

	page, err := c.ListArticles(context.Background(), ArticleQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 3 || page.TotalPages != 1 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestClient_UploadImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/images/upload/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		if string(b) != "png-bytes" {
			t.Errorf("unexpected file body %q", b)
		}
		if header.Header.Get("Content-Type") != "image/png" {
			t.Errorf("unexpected part content type %q", header.Header.Get("Content-Type"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": 11, "fileName": header.Filename, "url": "/u/a.png"},
		})
	}, nil, nil)

	img, err := c.UploadImage(context.Background(), 7, FileUpload{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.ID != 11 || img.FileName != "a.png" {
		t.Errorf("unexpected image %+v", img)
	}
}

func TestClient_UpdateArticleKeepsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("want PUT; got %s", r.Method)
		}
		var in ArticleInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.CategoryID != 2 {
			t.Errorf("want categoryId 2; got %d", in.CategoryID)
		}
		w.Write([]byte(`{"success":true,"message":"ok"}`))
	}, nil, nil)

	a, err := c.UpdateArticle(context.Background(), 9, ArticleInput{Title: "A", Content: "B", CategoryID: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != 9 {
		t.Errorf("want ID 9; got %d", a.ID)
	}
}

func TestClient_UploadTimeout(t *testing.T) {
	// The handler answers after delay, or gives up when the client disconnects.
	slow := func(delay time.Duration) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
			w.Write([]byte(`{"success":true,"data":{"id":11,"fileName":"a.png"}}`))
		}
	}
	upload := func(c *Client) error {
		_, err := c.UploadImage(context.Background(), 7, FileUpload{Name: "a.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")})
		return err
	}

	t.Run("upload exceeds its timeout", func(t *testing.T) {
		srv := httptest.NewServer(slow(2 * time.Second))
		t.Cleanup(srv.Close)
		c := New(srv.URL+"/api", Options{Timeout: time.Minute, UploadTimeout: 50 * time.Millisecond})

		start := time.Now()
		err := upload(c)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("want context.DeadlineExceeded; got %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("the upload timeout did not apply; took %s", elapsed)
		}
	})

	t.Run("upload outlives the regular timeout", func(t *testing.T) {
		srv := httptest.NewServer(slow(100 * time.Millisecond))
		t.Cleanup(srv.Close)
		c := New(srv.URL+"/api", Options{Timeout: 20 * time.Millisecond, UploadTimeout: 5 * time.Second})

		if err := upload(c); err != nil {
			t.Fatalf("upload must use the upload timeout: %v", err)
		}
		if _, err := c.ListCategories(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("regular requests must use the regular timeout; got %v", err)
		}
	})
}
