package session

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// PolicyRule restricts one route prefix to a set of roles. A path matches
// the longest prefix that applies to it.
type PolicyRule struct {
	Prefix string        `yaml:"prefix"`
	Roles  []domain.Role `yaml:"roles"`
}

// RoutePolicy is the declarative route table: which role groups may enter
// which sections. Paths without a matching rule only require an
// authenticated session.
type RoutePolicy struct {
	rules []PolicyRule
}

type policyFile struct {
	Routes []PolicyRule `yaml:"routes"`
}

// NewRoutePolicy builds a policy from explicit rules.
func NewRoutePolicy(rules []PolicyRule) *RoutePolicy {
	sorted := make([]PolicyRule, len(rules))
	copy(sorted, rules)
	// Longest prefix first so the most specific rule wins.
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RoutePolicy{rules: sorted}
}

// DefaultPolicy encodes the platform's section restrictions: user
// management is SuperAdmin territory, favourites belong to standard users.
func DefaultPolicy() *RoutePolicy {
	return NewRoutePolicy([]PolicyRule{
		{Prefix: "/dashboard/users", Roles: []domain.Role{domain.RoleSuperAdmin}},
		{Prefix: "/dashboard/favourites", Roles: []domain.Role{domain.RoleSystemUser}},
	})
}

// LoadPolicy reads a route policy from a YAML file. An empty path yields
// the default policy.
func LoadPolicy(path string) (*RoutePolicy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route policy: %w", err)
	}
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse route policy: %w", err)
	}
	for _, rule := range file.Routes {
		if rule.Prefix == "" {
			return nil, fmt.Errorf("route policy rule missing prefix")
		}
		for _, role := range rule.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("route policy %s: unknown role %q", rule.Prefix, role)
			}
		}
	}
	return NewRoutePolicy(file.Routes), nil
}

// RolesFor returns the required-role set for a path, and whether the path
// is role-restricted at all.
func (p *RoutePolicy) RolesFor(path string) ([]domain.Role, bool) {
	for _, rule := range p.rules {
		if strings.HasPrefix(path, rule.Prefix) && len(rule.Roles) > 0 {
			return rule.Roles, true
		}
	}
	return nil, false
}

// Allows reports whether the role may enter the path.
func (p *RoutePolicy) Allows(path string, role domain.Role) bool {
	roles, restricted := p.RolesFor(path)
	if !restricted {
		return true
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Rules exposes the effective rule list, most specific first.
func (p *RoutePolicy) Rules() []PolicyRule {
	out := make([]PolicyRule, len(p.rules))
	copy(out, p.rules)
	return out
}
