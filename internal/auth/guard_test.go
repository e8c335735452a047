package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/shared"
)

func serveGuarded(mw func(http.Handler) http.Handler, p *shared.Principal) int {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil)
	if p != nil {
		req = req.WithContext(WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestGuards(t *testing.T) {
	bursar := &shared.Principal{UserID: "u-1", Access: access.User{
		Role: string(access.RoleFinanceOfficer), Permissions: []string{access.PermFinanceView, access.PermPaymentsView},
	}}
	ops := &shared.Principal{UserID: "u-2", Access: access.User{Role: string(access.RoleSuperAdmin), IsSystem: true}}

	tests := []struct {
		name string
		mw   func(http.Handler) http.Handler
		p    *shared.Principal
		want int
	}{
		{"anonymous", RequireAny(access.PermAuditView), nil, http.StatusUnauthorized},
		{"any granted", RequireAny(access.PermAuditView, access.PermFinanceView), bursar, http.StatusOK},
		{"any denied", RequireAny(access.PermAuditView), bursar, http.StatusForbidden},
		{"all granted", RequireAll(access.PermFinanceView, "PAYMENTS.VIEW"), bursar, http.StatusOK},
		{"all denied", RequireAll(access.PermFinanceView, access.PermFeesManage), bursar, http.StatusForbidden},
		{"system bypass", RequireAll(access.PermAuditView), ops, http.StatusOK},
		{"empty guard", RequireAny(), nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveGuarded(tt.mw, tt.p))
		})
	}
}

func TestUserAccessSnapshot(t *testing.T) {
	u := &User{Role: access.RoleFinanceOfficer, Permissions: []string{access.PermPaymentsView}}

	snapshot := u.Access()
	assert.Equal(t, "finance-officer", snapshot.Role)
	assert.Equal(t, access.RoleFinanceOfficer, access.FromUser(snapshot).Role())
	assert.True(t, access.FromUser(snapshot).HasPermission(access.PermPaymentsView))
}
