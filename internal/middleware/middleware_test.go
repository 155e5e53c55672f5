package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/auth"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"
)

// mockEnforcer allows the (subject, path) pairs it was given.
type mockEnforcer struct {
	allowed map[string]bool
	err     error
}

func (m *mockEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.allowed[rvals[0].(string)+" "+rvals[1].(string)], nil
}

type mockIdentities struct {
	id *session.Identity
}

func (m mockIdentities) Identity(ctx context.Context) *session.Identity { return m.id }

func TestAuthorizer(t *testing.T) {
	enforcer := &mockEnforcer{allowed: map[string]bool{
		"anonymous /":            true,
		"admin /admin/clanci":    true,
		"owner /admin/admini":    true,
		"anonymous /admin/login": true,
	}}
	admin := &session.Identity{Subject: "ana", Name: "Ana", Role: api.RoleAdmin}
	owner := &session.Identity{Subject: "marko", Role: api.RoleOwner}

	testCases := []struct {
		name         string
		id           *session.Identity
		path         string
		wantCode     int
		wantLocation string
		wantSubject  string
	}{
		{"anonymous public", nil, "/", http.StatusOK, "", auth.SubjectAnonymous},
		{"anonymous admin page", nil, "/admin/clanci", http.StatusSeeOther, LoginPath, ""},
		{"admin allowed", admin, "/admin/clanci", http.StatusOK, "", auth.SubjectAdmin},
		{"admin on owner page", admin, "/admin/admini", http.StatusSeeOther, AdminPath, ""},
		{"owner allowed", owner, "/admin/admini", http.StatusOK, "", auth.SubjectOwner},
		{"anonymous unknown path", nil, "/private", http.StatusForbidden, "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotSubject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSubject = GetUserInfo(r.Context()).Subject
			})
			h := Authorizer(enforcer, mockIdentities{id: tc.id})(next)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", tc.path, nil))

			if rr.Code != tc.wantCode {
				t.Errorf("want status %d; got %d", tc.wantCode, rr.Code)
			}
			if loc := rr.Header().Get("Location"); loc != tc.wantLocation {
				t.Errorf("want location %q; got %q", tc.wantLocation, loc)
			}
			if gotSubject != tc.wantSubject {
				t.Errorf("want subject %q; got %q", tc.wantSubject, gotSubject)
			}
		})
	}
}

func TestAuthorizer_EnforcerError(t *testing.T) {
	h := Authorizer(&mockEnforcer{err: errors.New("boom")}, mockIdentities{})(http.NotFoundHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("want 500; got %d", rr.Code)
	}
}

func newErrorView(t *testing.T) *view.View {
	t.Helper()
	v, err := view.New(fstest.MapFS{
		"templates/pages/error.html": {Data: []byte(`<h1>{{.StatusCode}}</h1><p>{{.StatusText}}</p>`)},
	})
	if err != nil {
		t.Fatalf("failed to create view: %v", err)
	}
	return v
}

func TestError(t *testing.T) {
	mw := Error(logger.Nop(), newErrorView(t))

	testCases := []struct {
		name         string
		handler      AppHandler
		wantCode     int
		wantBody     string
		wantLocation string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) *AppError {
				return &AppError{Error: errors.New("no such article"), Message: "Članak nije pronađen", Code: http.StatusNotFound}
			},
			wantCode: http.StatusNotFound,
			wantBody: "Članak nije pronađen",
		},
		{
			name: "unauthorized API token",
			handler: func(w http.ResponseWriter, r *http.Request) *AppError {
				err := &api.Error{Status: http.StatusUnauthorized}
				return &AppError{Error: err, Message: "Greška", Code: http.StatusInternalServerError}
			},
			wantCode:     http.StatusSeeOther,
			wantLocation: LoginPath,
		},
		{
			name: "panic",
			handler: func(w http.ResponseWriter, r *http.Request) *AppError {
				panic("something broke")
			},
			wantCode: http.StatusInternalServerError,
			wantBody: "Došlo je do greške na serveru",
		},
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) *AppError {
				w.Write([]byte("ok"))
				return nil
			},
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mw(tc.handler).ServeHTTP(rr, httptest.NewRequest("GET", "/clanak/x", nil))

			if rr.Code != tc.wantCode {
				t.Errorf("want status %d; got %d", tc.wantCode, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.wantBody) {
				t.Errorf("want body containing %q; got %q", tc.wantBody, rr.Body.String())
			}
			if loc := rr.Header().Get("Location"); loc != tc.wantLocation {
				t.Errorf("want location %q; got %q", tc.wantLocation, loc)
			}
		})
	}
}

func TestSettingsMiddleware(t *testing.T) {
	var got string
	h := SettingsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = view.Theme(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if got != view.ThemeDark {
		t.Errorf("want dark by default; got %q", got)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/?theme=light", nil))
	if got != view.ThemeLight {
		t.Errorf("want light from query; got %q", got)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != view.ThemeLight {
		t.Fatalf("expected theme cookie, got %v", cookies)
	}

	req := httptest.NewRequest("GET", "/clanak/x", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != view.ThemeLight {
		t.Errorf("want light from cookie; got %q", got)
	}
}
