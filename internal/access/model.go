package access

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Role classifies the authenticated actor.
type Role string

// Known roles. Anything the server sends outside this set is unclassified.
const (
	RoleSuperAdmin     Role = "super-admin"
	RoleSchoolAdmin    Role = "school-admin"
	RoleTeacher        Role = "teacher"
	RoleStudent        Role = "student"
	RoleParent         Role = "parent"
	RoleFinanceOfficer Role = "finance-officer"
	RoleUnclassified   Role = "unclassified"
)

var knownRoles = map[Role]struct{}{
	RoleSuperAdmin:     {},
	RoleSchoolAdmin:    {},
	RoleTeacher:        {},
	RoleStudent:        {},
	RoleParent:         {},
	RoleFinanceOfficer: {},
}

// ParseRole maps a server supplied role name onto Role.
func ParseRole(raw string) Role {
	name := normalize(raw)
	name = strings.NewReplacer("_", "-", " ", "-").Replace(name)
	if name == "superadmin" {
		name = string(RoleSuperAdmin)
	}
	role := Role(name)
	if _, ok := knownRoles[role]; ok {
		return role
	}
	return RoleUnclassified
}

// User is the authenticated user payload handed over by the auth layer.
type User struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"isSystem"`
}

// Model is the immutable permission snapshot of one session. A nil Model
// denies everything.
type Model struct {
	role   Role
	perms  map[string]struct{}
	system bool
}

// New builds a Model. Tokens are trimmed and case folded; blanks are dropped.
func New(role Role, perms []string, system bool) *Model {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = normalize(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return &Model{role: role, perms: set, system: system}
}

// FromUser derives the Model for an authenticated user.
func FromUser(u User) *Model {
	return New(ParseRole(u.Role), u.Permissions, u.IsSystem)
}

// Role returns the role classification.
func (m *Model) Role() Role {
	if m == nil {
		return RoleUnclassified
	}
	return m.role
}

// IsSystemUser reports whether the holder bypasses every permission check.
func (m *Model) IsSystemUser() bool {
	return m != nil && m.system
}

// Permissions returns the granted tokens in lexical order.
func (m *Model) Permissions() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.perms))
	for p := range m.perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Holds reports raw membership of token, ignoring the system bypass.
func (m *Model) Holds(token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.perms[normalize(token)]
	return ok
}

// HasPermission reports whether the caller may use token.
func (m *Model) HasPermission(token string) bool {
	if m.IsSystemUser() {
		return true
	}
	return m.Holds(token)
}

// HasAnyPermission reports whether at least one token is granted. An empty
// list is never satisfied by a non-system caller.
func (m *Model) HasAnyPermission(tokens ...string) bool {
	if m.IsSystemUser() {
		return true
	}
	for _, t := range tokens {
		if m.Holds(t) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every token is granted. An empty list is
// vacuously satisfied.
func (m *Model) HasAllPermissions(tokens ...string) bool {
	if m.IsSystemUser() {
		return true
	}
	for _, t := range tokens {
		if !m.Holds(t) {
			return false
		}
	}
	return true
}

// Snapshot converts the Model back into the transport payload.
func (m *Model) Snapshot() User {
	return User{Role: string(m.Role()), Permissions: m.Permissions(), IsSystem: m.IsSystemUser()}
}

// normalize folds a token for comparison. Casers keep state, so each call
// gets its own.
func normalize(token string) string {
	return cases.Fold().String(strings.TrimSpace(token))
}

type modelContextKey struct{}

// WithModel stores the access model in context.
func WithModel(ctx context.Context, m *Model) context.Context {
	return context.WithValue(ctx, modelContextKey{}, m)
}

// FromContext extracts the access model from context; nil when anonymous.
func FromContext(ctx context.Context) *Model {
	m, _ := ctx.Value(modelContextKey{}).(*Model)
	return m
}
