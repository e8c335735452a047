package access

import "sort"

// Portal permissions decide which navigation audience a caller belongs to.
const (
	PermPortalParent  = "portal.parent"
	PermPortalStudent = "portal.student"
	PermPortalStaff   = "portal.staff"
	PermPortalAdmin   = "portal.admin"
)

// Dashboard and academic structure.
const (
	PermDashboardView = "dashboard.view"

	PermSessionsView   = "sessions.view"
	PermSessionsManage = "sessions.manage"
	PermClassesView    = "classes.view"
	PermClassesManage  = "classes.manage"
	PermSubjectsView   = "subjects.view"
	PermSubjectsManage = "subjects.manage"
)

// Students and admissions.
const (
	PermStudentsView   = "students.view"
	PermStudentsCreate = "students.create"
	PermStudentsEdit   = "students.edit"

	PermAdmissionsView   = "admissions.view"
	PermAdmissionsManage = "admissions.manage"

	PermAttendanceView = "attendance.view"
	PermAttendanceMark = "attendance.mark"

	PermResultsView    = "results.view"
	PermResultsEnter   = "results.enter"
	PermResultsPublish = "results.publish"
)

// Finance.
const (
	PermFinanceView   = "finance.view"
	PermFeesManage    = "fees.manage"
	PermPaymentsView  = "payments.view"
	PermPaymentsCheck = "payments.verify"
)

// Communication and administration.
const (
	PermMessagesView = "messages.view"
	PermMessagesSend = "messages.send"

	PermStaffView   = "staff.view"
	PermStaffManage = "staff.manage"
	PermRolesManage = "roles.manage"

	PermSettingsManage = "settings.manage"
)

// Platform scopes held by the operator of the multi-school deployment.
const (
	PermSchoolsView   = "schools.view"
	PermSchoolsManage = "schools.manage"
	PermPlansManage   = "plans.manage"
	PermAuditView     = "audit.view"
)

var registry = func() map[string]struct{} {
	all := []string{
		PermPortalParent, PermPortalStudent, PermPortalStaff, PermPortalAdmin,
		PermDashboardView,
		PermSessionsView, PermSessionsManage,
		PermClassesView, PermClassesManage,
		PermSubjectsView, PermSubjectsManage,
		PermStudentsView, PermStudentsCreate, PermStudentsEdit,
		PermAdmissionsView, PermAdmissionsManage,
		PermAttendanceView, PermAttendanceMark,
		PermResultsView, PermResultsEnter, PermResultsPublish,
		PermFinanceView, PermFeesManage, PermPaymentsView, PermPaymentsCheck,
		PermMessagesView, PermMessagesSend,
		PermStaffView, PermStaffManage, PermRolesManage,
		PermSettingsManage,
		PermSchoolsView, PermSchoolsManage, PermPlansManage, PermAuditView,
	}
	set := make(map[string]struct{}, len(all))
	for _, p := range all {
		set[p] = struct{}{}
	}
	return set
}()

// Registry lists every known permission token in lexical order.
func Registry() []string {
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsRegistered reports whether token is part of the static registry.
func IsRegistered(token string) bool {
	_, ok := registry[normalize(token)]
	return ok
}
