package navigation

import "github.com/learnova/learnova/internal/access"

// Classify picks the audience whose catalog applies to m. Rules are checked in
// order and the first match wins:
//
//  1. parent portal permission
//  2. student portal permission
//  3. staff or admin portal permission
//  4. system user
//
// Portal permissions are matched on raw membership so the system bypass does
// not pull every system user into the parent portal. A system user carrying a
// staff or admin portal permission resolves to staff.
func Classify(m *access.Model) Audience {
	switch {
	case m == nil:
		return AudienceNone
	case m.Holds(access.PermPortalParent):
		return AudienceParent
	case m.Holds(access.PermPortalStudent):
		return AudienceStudent
	case m.Holds(access.PermPortalStaff), m.Holds(access.PermPortalAdmin):
		return AudienceStaff
	case m.IsSystemUser():
		return AudienceSuperAdmin
	default:
		return AudienceNone
	}
}
