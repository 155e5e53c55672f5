package auth

import (
	"fmt"

	"teretnjaci-web/internal/api"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// Subjects the enforcer knows about. Every request is checked as one of them.
const (
	SubjectAnonymous = "anonymous"
	SubjectAdmin     = "admin"
	SubjectOwner     = "owner"
)

// accessModel is RBAC over URL patterns (keyMatch2) and method alternatives (regexMatch).
const accessModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// NewEnforcer creates a Casbin enforcer whose policies are stored in the
// casbin_rule table of the state database and loads them.
func NewEnforcer(driverName, dsn string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse access model: %w", err)
	}

	adapter := sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	})

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.AddFunction("regexMatch", util.RegexMatchFunc)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	return enforcer, nil
}

// SubjectForRole maps an API role to the enforcer subject. An empty role is
// an anonymous visitor; unknown roles get admin rights at most.
func SubjectForRole(role string) string {
	switch role {
	case "":
		return SubjectAnonymous
	case api.RoleOwner:
		return SubjectOwner
	default:
		return SubjectAdmin
	}
}
