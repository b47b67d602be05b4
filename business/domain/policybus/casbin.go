package policybus

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/jcpaschoal/crm-tenancy/business/types/operation"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// Scope values compare the caller's organization with the target.
const (
	scopeAny   = "any"
	scopeOwn   = "own"
	scopeOther = "other"
	scopeNone  = "none"
)

const casbinModel = `
[request_definition]
r = sub, scope, act

[policy_definition]
p = sub, scope, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act && (p.scope == "any" || r.scope == p.scope)
`

type rule struct {
	role  role.Role
	scope string
	op    operation.Operation
}

func capabilityTable(adminsManageFeatures bool) []rule {
	var rules []rule

	for _, op := range operation.All() {
		rules = append(rules, rule{role.SuperAdmin, scopeAny, op})
	}

	for _, r := range []role.Role{role.Admin, role.User, role.Professional} {
		rules = append(rules,
			rule{r, scopeAny, operation.TenantList},
			rule{r, scopeOwn, operation.TenantRead},
		)
	}

	rules = append(rules,
		rule{role.Admin, scopeOwn, operation.TenantUpdate},
		rule{role.Admin, scopeOwn, operation.MemberManage},
		rule{role.Admin, scopeOwn, operation.MemberGrantAdmin},
	)

	if adminsManageFeatures {
		rules = append(rules, rule{role.Admin, scopeOwn, operation.TenantFeatures})
	}

	return rules
}

func newEnforcer(adminsManageFeatures bool) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, r := range capabilityTable(adminsManageFeatures) {
		if _, err := e.AddPolicy(subject(r.role), r.scope, r.op.String()); err != nil {
			return nil, fmt.Errorf("add policy: %w", err)
		}
	}

	for _, r := range role.All() {
		if _, err := e.AddGroupingPolicy(r.String(), subject(r)); err != nil {
			return nil, fmt.Errorf("add grouping: %w", err)
		}
	}

	return e, nil
}

func subject(r role.Role) string {
	return "role:" + r.String()
}
