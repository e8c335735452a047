// Package navigation composes the permission-gated sidebar menus of the
// school portal.
package navigation

import "github.com/learnova/learnova/internal/access"

// Audience names one of the disjoint navigation contexts.
type Audience string

// Known audiences.
const (
	AudienceNone       Audience = ""
	AudienceStaff      Audience = "staff"
	AudienceParent     Audience = "parent"
	AudienceStudent    Audience = "student"
	AudienceSuperAdmin Audience = "super-admin"
)

// Icon is a symbolic icon reference resolved by the presentation layer.
type Icon string

// Icons used by the default catalogs.
const (
	IconDashboard  Icon = "dashboard"
	IconCalendar   Icon = "calendar"
	IconClasses    Icon = "classes"
	IconSubjects   Icon = "subjects"
	IconStudents   Icon = "students"
	IconAdmissions Icon = "admissions"
	IconAttendance Icon = "attendance"
	IconResults    Icon = "results"
	IconFinance    Icon = "finance"
	IconPayments   Icon = "payments"
	IconMessages   Icon = "messages"
	IconStaff      Icon = "staff"
	IconSettings   Icon = "settings"
	IconSchools    Icon = "schools"
	IconPlans      Icon = "plans"
	IconAudit      Icon = "audit"
	IconChildren   Icon = "children"
	IconProfile    Icon = "profile"
)

// EmptyRequirementVisible decides how an item configured with an empty
// permission set behaves. true means it is treated as having no requirement.
const EmptyRequirementVisible = true

type requirementKind uint8

const (
	requireNone requirementKind = iota
	requireOne
	requireAny
)

// Requirement is the permission gate of a navigation item.
type Requirement struct {
	kind   requirementKind
	tokens []string
}

// None is the absent requirement; the item is visible to everyone.
var None = Requirement{}

// Requires gates an item on a single permission.
func Requires(token string) Requirement {
	return Requirement{kind: requireOne, tokens: []string{token}}
}

// RequiresAny gates an item on holding at least one of tokens.
func RequiresAny(tokens ...string) Requirement {
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	return Requirement{kind: requireAny, tokens: cp}
}

// Tokens returns the permissions named by the requirement.
func (r Requirement) Tokens() []string {
	cp := make([]string, len(r.tokens))
	copy(cp, r.tokens)
	return cp
}

// IsZero reports whether the requirement is absent.
func (r Requirement) IsZero() bool {
	return r.kind == requireNone
}

// Allows evaluates the requirement against m.
func (r Requirement) Allows(m *access.Model) bool {
	switch r.kind {
	case requireOne:
		return m.HasPermission(r.tokens[0])
	case requireAny:
		if len(r.tokens) == 0 {
			return EmptyRequirementVisible
		}
		return m.HasAnyPermission(r.tokens...)
	default:
		return true
	}
}

// Item is a single navigation entry. Items with children act as groups.
type Item struct {
	Key         string      `validate:"required"`
	Title       string      `validate:"required"`
	Destination string      `validate:"required,startswith=/"`
	Icon        Icon
	Requirement Requirement `validate:"-"`
	// BadgeKey names the counter decorating the item, if any.
	BadgeKey string
	Children []Item `validate:"dive"`
}

// IsLeaf reports whether the item has no children.
func (i Item) IsLeaf() bool {
	return len(i.Children) == 0
}

// Section groups items under a heading.
type Section struct {
	Title string `validate:"required"`
	Items []Item `validate:"required,min=1,dive"`
}

// Catalog is the author-ordered navigation tree of one audience.
type Catalog struct {
	Audience Audience
	Title    string    `validate:"required"`
	Sections []Section `validate:"dive"`
}

// Catalogs maps each audience to its catalog.
type Catalogs map[Audience]Catalog
