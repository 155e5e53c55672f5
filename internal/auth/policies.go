package auth

import (
	"fmt"

	"teretnjaci-web/internal/logger"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies is the baseline rule set. Admins inherit everything
// anonymous visitors can do, and owners inherit admin rights.
var DefaultPolicies = [][]string{
	{SubjectAnonymous, "/", "GET"},
	{SubjectAnonymous, "/kategorija/:slug", "GET"},
	{SubjectAnonymous, "/clanak/:slug", "GET"},
	{SubjectAnonymous, "/robots.txt", "GET"},
	{SubjectAnonymous, "/sitemap.xml", "GET"},
	{SubjectAnonymous, "/admin/login", "(GET)|(POST)"},

	{SubjectAdmin, "/admin", "GET"},
	{SubjectAdmin, "/admin/logout", "POST"},
	{SubjectAdmin, "/admin/clanci", "GET"},
	{SubjectAdmin, "/admin/clanci/*", "(GET)|(POST)"},
	{SubjectAdmin, "/admin/editor/*", "(GET)|(POST)"},

	{SubjectOwner, "/admin/admini", "(GET)|(POST)"},
	{SubjectOwner, "/admin/admini/*", "(GET)|(POST)"},
}

// DefaultRoles is the role inheritance chain as (member, role) pairs.
var DefaultRoles = [][]string{
	{SubjectAdmin, SubjectAnonymous},
	{SubjectOwner, SubjectAdmin},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	for _, g := range DefaultRoles {
		if has, _ := e.HasRoleForUser(g[0], g[1]); !has {
			if _, err := e.AddRoleForUser(g[0], g[1]); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add role '%s' -> '%s'", g[0], g[1]))
			}
		}
	}
	log.Info("Policy seeding complete.")
}
