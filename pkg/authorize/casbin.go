// Package authorize implements the role gate: each route declares the
// resource/action it exposes and the enforcer decides whether the caller's
// role may pass. Row-level patient scoping lives in internal/service/access.
package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

var ErrForbidden = errors.New("forbidden")

// The model matches on role, resource and action, with "*" wildcards in
// policy rows. Roles are static so policies are seeded in memory at startup
// rather than persisted.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// IAuthorization is the role-gate seam the HTTP layer depends on.
type IAuthorization interface {
	Can(ctx context.Context, role Role, resource Resource, action Action) (bool, error)
	MustEnforce(ctx context.Context, role Role, resource Resource, action Action) error
}

type authorization struct {
	enforcer *casbin.Enforcer
}

// NewAuthorization builds the enforcer and seeds the clinic's fixed policy
// matrix.
func NewAuthorization() (IAuthorization, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if err := seedPolicies(e); err != nil {
		return nil, err
	}
	return &authorization{enforcer: e}, nil
}

func (a *authorization) Can(_ context.Context, role Role, resource Resource, action Action) (bool, error) {
	return a.enforcer.Enforce(string(role), string(resource), string(action))
}

func (a *authorization) MustEnforce(ctx context.Context, role Role, resource Resource, action Action) error {
	ok, err := a.Can(ctx, role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
