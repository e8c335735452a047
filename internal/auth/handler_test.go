package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/auth"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/tenant"
	_ "github.com/learnova/learnova/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	created  []string
	deleted  []string
	lookupFn func() error
}

func (s *stubRepo) FindByEmail(ctx context.Context, schoolID, email string) (*auth.User, error) {
	if s.lookupFn != nil {
		if err := s.lookupFn(); err != nil {
			return nil, err
		}
	}
	u, ok := s.users[schoolID+"|"+strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, id)
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

type auditSpy struct {
	mu      sync.Mutex
	actions []string
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

type harness struct {
	t       *testing.T
	router  http.Handler
	repo    *stubRepo
	audit   *auditSpy
	mr      *miniredis.Miniredis
	cookie  *http.Cookie
	csrf    string
	tenancy tenant.Resolution
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	school := tenant.DemoSchool()
	repo := &stubRepo{users: map[string]*auth.User{
		school.TenantID + "|teacher@demo.test": {
			ID: "u-teacher", SchoolID: school.TenantID, Email: "teacher@demo.test",
			PasswordHash: hash(t, "correct-horse"), Role: access.RoleTeacher,
			Permissions: []string{access.PermPortalStaff, access.PermAttendanceMark},
			IsSystem:    true, IsActive: true,
		},
		school.TenantID + "|former@demo.test": {
			ID: "u-former", Email: "former@demo.test", PasswordHash: hash(t, "correct-horse"),
			Role: access.RoleTeacher, IsActive: false,
		},
		"|ops@learnova.test": {
			ID: "u-ops", Email: "ops@learnova.test", PasswordHash: hash(t, "correct-horse"),
			Role: access.RoleSuperAdmin, IsSystem: true, IsActive: true,
		},
	}}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "sid", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	audit := &auditSpy{}
	handler := auth.NewHandler(nil, auth.NewService(repo), sessions, csrf, audit)

	h := &harness{t: t, repo: repo, audit: audit, mr: mr, tenancy: tenant.Resolution{Context: school}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			ctx = tenant.ContextWithResolution(ctx, h.tenancy)
			req = req.WithContext(ctx)
			if err := csrf.VerifyRequest(req); err != nil {
				http.Error(w, "csrf", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
			cookies := httptest.NewRecorder()
			require.NoError(t, sessions.Commit(ctx, cookies, req, sess))
			if c := cookies.Result().Cookies(); len(c) > 0 {
				h.cookie = c[0]
			}
		})
	})
	r.Use(auth.Middleware)
	r.Route("/api/auth", handler.MountRoutes)
	h.router = r
	return h
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil && h.cookie.MaxAge >= 0 {
		req.AddCookie(&http.Cookie{Name: h.cookie.Name, Value: h.cookie.Value})
	}
	if h.csrf != "" {
		req.Header.Set(shared.CSRFHeader, h.csrf)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) primeCSRF() {
	h.t.Helper()
	rec := h.do(http.MethodGet, "/api/auth/csrf", "")
	require.Equal(h.t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &body))
	h.csrf = body["csrfToken"]
	require.NotEmpty(h.t, h.csrf)
}

type sessionBody struct {
	User struct {
		ID          string   `json:"id"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
		IsSystem    bool     `json:"isSystem"`
	} `json:"user"`
	CSRFToken string `json:"csrfToken"`
}

func (h *harness) login(email, password string) *httptest.ResponseRecorder {
	h.t.Helper()
	h.primeCSRF()
	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code == http.StatusOK {
		var body sessionBody
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &body))
		h.csrf = body.CSRFToken
	}
	return rec
}

func TestLoginStoresAccessSnapshot(t *testing.T) {
	h := newHarness(t)
	h.primeCSRF()
	anonymous := h.cookie.Value

	rec := h.login("Teacher@demo.test", "correct-horse")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body sessionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u-teacher", body.User.ID)
	assert.Equal(t, "teacher", body.User.Role)
	assert.Equal(t, []string{"attendance.mark", "portal.staff"}, body.User.Permissions)
	assert.False(t, body.User.IsSystem, "school accounts never carry the bypass")

	assert.NotEqual(t, anonymous, h.cookie.Value, "session id rotates on login")
	assert.False(t, h.mr.Exists("session:"+anonymous))
	assert.Equal(t, []string{h.cookie.Value}, h.repo.created)
	assert.Equal(t, []string{"auth.login"}, h.audit.actions)

	me := h.do(http.MethodGet, "/api/auth/me", "")
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"role":"teacher"`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "teacher@demo.test", "wrong-password"},
		{"unknown user", "nobody@demo.test", "correct-horse"},
		{"inactive user", "former@demo.test", "correct-horse"},
		{"platform account on school host", "ops@learnova.test", "correct-horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.login(tt.email, tt.password)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, h.repo.created)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.login("not-an-email", "short")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, map[string]string{"email": "email", "password": "min"}, problem.Errors)
}

func TestLoginRequiresCSRFToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"teacher@demo.test","password":"correct-horse"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginOnUnresolvedSchool(t *testing.T) {
	h := newHarness(t)
	h.tenancy = tenant.Resolution{Degraded: true}

	rec := h.login("teacher@demo.test", "correct-horse")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginWithoutAccountStore(t *testing.T) {
	h := newHarness(t)
	h.repo.lookupFn = func() error { return auth.ErrAccountsUnavailable }

	rec := h.login("teacher@demo.test", "correct-horse")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, h.repo.created)

	_, err := auth.NewService(auth.UnavailableRepository{}).Authenticate(context.Background(), "school", "a@b.test", "pw")
	assert.ErrorIs(t, err, auth.ErrAccountsUnavailable)
}

func TestPlatformLoginOnSuperAdminHost(t *testing.T) {
	h := newHarness(t)
	h.tenancy = tenant.Resolution{SuperAdmin: true}

	rec := h.login("ops@learnova.test", "correct-horse")
	require.Equal(t, http.StatusOK, rec.Code)
	var body sessionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.User.IsSystem)
}

func TestSessionIsBoundToSchool(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login("teacher@demo.test", "correct-horse").Code)

	other := tenant.DemoSchool()
	other.Slug = "riverside"
	h.tenancy = tenant.Resolution{Context: other}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "").Code)

	h.tenancy = tenant.Resolution{SuperAdmin: true}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "").Code)
}

func TestLogoutDropsSession(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login("teacher@demo.test", "correct-horse").Code)
	sid := h.cookie.Value

	rec := h.do(http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, h.mr.Exists("session:"+sid))
	assert.Equal(t, []string{sid}, h.repo.deleted)
	assert.Equal(t, []string{"auth.login", "auth.logout"}, h.audit.actions)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "").Code)
}

func TestMeRequiresSession(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "").Code)
}

func TestSessionAcrossTenantFailures(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login("teacher@demo.test", "correct-horse").Code)

	h.tenancy = tenant.Resolution{Degraded: true, Transient: true}
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/auth/me", "").Code, "backend outage keeps the session")

	h.tenancy = tenant.Resolution{Degraded: true}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "").Code, "unknown school drops it")

	h.tenancy = tenant.Resolution{Context: tenant.DemoSchool()}
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/auth/me", "").Code)
}
