// Package auth guards the admin surface with a role-based casbin enforcer.
package auth

import (
	"fmt"
	"sync"

	casbinlib "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Role codes known to the gallery.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// RBACManager wraps a casbin enforcer seeded with the gallery's policy
// set. Policies live in memory; the admin surface is small enough that a
// persistence adapter would be dead weight.
type RBACManager struct {
	enforcer *casbinlib.Enforcer
	mu       sync.RWMutex
}

// NewRBACManager creates the enforcer with the built-in gallery policies.
func NewRBACManager() (*RBACManager, error) {
	modelText := `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	enforcer, err := casbinlib.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	mgr := &RBACManager{enforcer: enforcer}
	if err := mgr.seed(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *RBACManager) seed() error {
	policies := [][]string{
		{RoleAdmin, "/api/admin/*", "read"},
		{RoleAdmin, "/api/admin/*", "write"},
		{RoleEditor, "/api/admin/wallpapers", "write"},
		{RoleEditor, "/api/admin/*", "read"},
	}
	for _, p := range policies {
		if _, err := m.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("failed to seed policy: %w", err)
		}
	}
	return nil
}

// Enforcer exposes the underlying casbin enforcer.
func (m *RBACManager) Enforcer() *casbinlib.Enforcer { return m.enforcer }

// GrantRole binds a subject to a role.
func (m *RBACManager) GrantRole(subject, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.enforcer.AddGroupingPolicy(subject, role)
	return err
}

// RevokeRole removes a subject's role binding.
func (m *RBACManager) RevokeRole(subject, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.enforcer.RemoveGroupingPolicy(subject, role)
	return err
}

// Allowed reports whether the subject may perform act on obj.
func (m *RBACManager) Allowed(subject, obj, act string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ok, err := m.enforcer.Enforce(subject, obj, act)
	return err == nil && ok
}

// HasRole reports whether the subject is bound to role, directly or
// through role inheritance.
func (m *RBACManager) HasRole(subject, role string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles, err := m.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
