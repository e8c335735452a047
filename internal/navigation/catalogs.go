package navigation

import "github.com/learnova/learnova/internal/access"

// Badge counters referenced by the default catalogs.
const (
	BadgeUnreadMessages    = "messages.unread"
	BadgePendingAdmissions = "admissions.pending"
	BadgePendingPayments   = "payments.pending"
)

// DefaultCatalogs returns the school portal catalogs. Every call builds a
// fresh value, so callers cannot alter another holder's copy.
func DefaultCatalogs() Catalogs {
	return Catalogs{
		AudienceStaff:      staffCatalog(),
		AudienceParent:     parentCatalog(),
		AudienceStudent:    studentCatalog(),
		AudienceSuperAdmin: superAdminCatalog(),
	}
}

func staffCatalog() Catalog {
	return Catalog{
		Audience: AudienceStaff,
		Title:    "School",
		Sections: []Section{
			{
				Title: "Overview",
				Items: []Item{
					{Key: "dashboard", Title: "Dashboard", Destination: "/dashboard", Icon: IconDashboard},
				},
			},
			{
				Title: "Academics",
				Items: []Item{
					{
						Key: "academics", Title: "Academic Setup", Destination: "/academics", Icon: IconCalendar,
						Requirement: RequiresAny(access.PermSessionsView, access.PermClassesView, access.PermSubjectsView),
						Children: []Item{
							{Key: "academics.sessions", Title: "Sessions & Terms", Destination: "/academics/sessions", Icon: IconCalendar, Requirement: Requires(access.PermSessionsView)},
							{Key: "academics.classes", Title: "Classes", Destination: "/academics/classes", Icon: IconClasses, Requirement: Requires(access.PermClassesView)},
							{Key: "academics.subjects", Title: "Subjects", Destination: "/academics/subjects", Icon: IconSubjects, Requirement: Requires(access.PermSubjectsView)},
						},
					},
					{Key: "attendance", Title: "Attendance", Destination: "/attendance", Icon: IconAttendance, Requirement: RequiresAny(access.PermAttendanceView, access.PermAttendanceMark)},
					{
						Key: "results", Title: "Results", Destination: "/results", Icon: IconResults,
						Children: []Item{
							{Key: "results.entry", Title: "Score Entry", Destination: "/results/entry", Icon: IconResults, Requirement: Requires(access.PermResultsEnter)},
							{Key: "results.broadsheet", Title: "Broadsheet", Destination: "/results/broadsheet", Icon: IconResults, Requirement: RequiresAny(access.PermResultsView, access.PermResultsPublish)},
							{Key: "results.publish", Title: "Publish Results", Destination: "/results/publish", Icon: IconResults, Requirement: Requires(access.PermResultsPublish)},
						},
					},
				},
			},
			{
				Title: "Students",
				Items: []Item{
					{Key: "students", Title: "Students", Destination: "/students", Icon: IconStudents, Requirement: Requires(access.PermStudentsView)},
					{Key: "admissions", Title: "Admissions", Destination: "/admissions", Icon: IconAdmissions, Requirement: Requires(access.PermAdmissionsView), BadgeKey: BadgePendingAdmissions},
				},
			},
			{
				Title: "Finance",
				Items: []Item{
					{
						Key: "finance", Title: "Finance", Destination: "/finance", Icon: IconFinance,
						Requirement: Requires(access.PermFinanceView),
						Children: []Item{
							{Key: "finance.fees", Title: "Fee Structure", Destination: "/finance/fees", Icon: IconFinance, Requirement: Requires(access.PermFeesManage)},
							{Key: "finance.payments", Title: "Payments", Destination: "/finance/payments", Icon: IconPayments, Requirement: RequiresAny(access.PermPaymentsView, access.PermPaymentsCheck), BadgeKey: BadgePendingPayments},
						},
					},
				},
			},
			{
				Title: "Communication",
				Items: []Item{
					{Key: "messages", Title: "Messages", Destination: "/messages", Icon: IconMessages, Requirement: RequiresAny(access.PermMessagesView, access.PermMessagesSend), BadgeKey: BadgeUnreadMessages},
				},
			},
			{
				Title: "Administration",
				Items: []Item{
					{Key: "staff", Title: "Staff", Destination: "/staff", Icon: IconStaff, Requirement: Requires(access.PermStaffView)},
					{Key: "roles", Title: "Roles & Permissions", Destination: "/roles", Icon: IconStaff, Requirement: Requires(access.PermRolesManage)},
					{Key: "settings", Title: "School Settings", Destination: "/settings", Icon: IconSettings, Requirement: Requires(access.PermSettingsManage)},
				},
			},
		},
	}
}

func parentCatalog() Catalog {
	return Catalog{
		Audience: AudienceParent,
		Title:    "Parent Portal",
		Sections: []Section{
			{
				Title: "My Children",
				Items: []Item{
					{Key: "parent.dashboard", Title: "Overview", Destination: "/parent", Icon: IconChildren},
					{Key: "parent.results", Title: "Results", Destination: "/parent/results", Icon: IconResults, Requirement: Requires(access.PermResultsView)},
					{Key: "parent.attendance", Title: "Attendance", Destination: "/parent/attendance", Icon: IconAttendance, Requirement: Requires(access.PermAttendanceView)},
				},
			},
			{
				Title: "Payments",
				Items: []Item{
					{Key: "parent.fees", Title: "School Fees", Destination: "/parent/fees", Icon: IconPayments, Requirement: Requires(access.PermPaymentsView)},
				},
			},
			{
				Title: "Communication",
				Items: []Item{
					{Key: "parent.messages", Title: "Messages", Destination: "/parent/messages", Icon: IconMessages, Requirement: Requires(access.PermMessagesView), BadgeKey: BadgeUnreadMessages},
				},
			},
		},
	}
}

func studentCatalog() Catalog {
	return Catalog{
		Audience: AudienceStudent,
		Title:    "Student Portal",
		Sections: []Section{
			{
				Title: "Learning",
				Items: []Item{
					{Key: "student.dashboard", Title: "Dashboard", Destination: "/student", Icon: IconDashboard},
					{Key: "student.subjects", Title: "My Subjects", Destination: "/student/subjects", Icon: IconSubjects, Requirement: Requires(access.PermSubjectsView)},
					{Key: "student.results", Title: "My Results", Destination: "/student/results", Icon: IconResults, Requirement: Requires(access.PermResultsView)},
					{Key: "student.attendance", Title: "My Attendance", Destination: "/student/attendance", Icon: IconAttendance, Requirement: Requires(access.PermAttendanceView)},
				},
			},
			{
				Title: "Account",
				Items: []Item{
					{Key: "student.messages", Title: "Messages", Destination: "/student/messages", Icon: IconMessages, Requirement: Requires(access.PermMessagesView), BadgeKey: BadgeUnreadMessages},
					{Key: "student.profile", Title: "Profile", Destination: "/student/profile", Icon: IconProfile},
				},
			},
		},
	}
}

func superAdminCatalog() Catalog {
	return Catalog{
		Audience: AudienceSuperAdmin,
		Title:    "Platform",
		Sections: []Section{
			{
				Title: "Platform",
				Items: []Item{
					{Key: "platform.dashboard", Title: "Dashboard", Destination: "/platform", Icon: IconDashboard},
					{Key: "platform.schools", Title: "Schools", Destination: "/platform/schools", Icon: IconSchools, Requirement: Requires(access.PermSchoolsView)},
					{Key: "platform.plans", Title: "Plans & Billing", Destination: "/platform/plans", Icon: IconPlans, Requirement: Requires(access.PermPlansManage)},
				},
			},
			{
				Title: "System",
				Items: []Item{
					{Key: "platform.audit", Title: "Audit Log", Destination: "/platform/audit", Icon: IconAudit, Requirement: Requires(access.PermAuditView)},
					{Key: "platform.settings", Title: "Settings", Destination: "/platform/settings", Icon: IconSettings, Requirement: Requires(access.PermSettingsManage)},
				},
			},
		},
	}
}
