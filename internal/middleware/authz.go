package middleware

import (
	"context"
	"net/http"
	"strings"

	"teretnjaci-web/internal/auth"
	"teretnjaci-web/internal/session"
)

// Paths the authorizer redirects to.
const (
	LoginPath = "/admin/login"
	AdminPath = "/admin"
)

// Enforcer is the part of the Casbin enforcer the authorizer needs.
type Enforcer interface {
	Enforce(rvals ...interface{}) (bool, error)
}

// IdentitySource resolves the signed-in admin for a request.
type IdentitySource interface {
	Identity(ctx context.Context) *session.Identity
}

// Authorizer creates a new middleware for authorization.
// It derives the Casbin subject from the session identity, stores it in the
// request context and checks the request path and method against the policies.
// Visitors without a session are sent to the login page for admin paths;
// admins reaching an owner-only page are sent back to the admin home.
func Authorizer(e Enforcer, ids IdentitySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &UserInfo{Subject: auth.SubjectAnonymous}
			if id := ids.Identity(r.Context()); id != nil {
				userInfo = &UserInfo{
					Subject:  auth.SubjectForRole(id.Role),
					Username: id.Subject,
					Name:     id.Name,
					Role:     id.Role,
				}
			}
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			allowed, err := e.Enforce(userInfo.Subject, r.URL.Path, r.Method)
			if err != nil {
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				switch {
				case !userInfo.Authenticated() && isAdminPath(r.URL.Path):
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				case userInfo.Authenticated() && isAdminPath(r.URL.Path):
					http.Redirect(w, r, AdminPath, http.StatusSeeOther)
				default:
					http.Error(w, "Forbidden", http.StatusForbidden)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAdminPath(p string) bool {
	return p == AdminPath || strings.HasPrefix(p, AdminPath+"/")
}
