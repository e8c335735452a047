package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnova/learnova/internal/access"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", "secret", time.Hour, false), mr
}

func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		return nil
	}
	return cookies[0]
}

func load(t *testing.T, sm *SessionManager, cookie *http.Cookie) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionPrincipalRoundTrip(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := load(t, sm, nil)
	sess.SetPrincipal(Principal{
		UserID:     "u-1",
		Email:      "teacher@demo.test",
		TenantSlug: "demo",
		Access:     access.User{Role: string(access.RoleTeacher), Permissions: []string{"portal.staff", "attendance.mark"}},
	})
	cookie := commit(t, sm, sess)
	require.NotNil(t, cookie)
	assert.True(t, mr.Exists("session:"+cookie.Value))

	reloaded := load(t, sm, cookie)
	p, ok := reloaded.Principal()
	require.True(t, ok)
	assert.Equal(t, "u-1", reloaded.User())
	assert.Equal(t, string(access.RoleTeacher), p.Access.Role)
	assert.Equal(t, []string{"portal.staff", "attendance.mark"}, p.Access.Permissions)
}

func TestSessionAnonymousIsNotPersisted(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := load(t, sm, nil)
	assert.Nil(t, commit(t, sm, sess))
	assert.Empty(t, mr.Keys())
}

func TestSessionUnknownIDIsNotAdopted(t *testing.T) {
	sm, _ := newTestManager(t)

	sess := load(t, sm, &http.Cookie{Name: "sid", Value: "forged"})
	assert.NotEqual(t, "forged", sess.ID)
	assert.Empty(t, sess.User())
}

func TestSessionRenewDropsPreviousID(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := load(t, sm, nil)
	sess.Set("k", "v")
	first := commit(t, sm, sess)

	sess = load(t, sm, first)
	sm.Renew(sess)
	second := commit(t, sm, sess)

	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.False(t, mr.Exists("session:"+first.Value))
	assert.Equal(t, "v", load(t, sm, second).Get("k"))
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := load(t, sm, nil)
	sess.SetPrincipal(Principal{UserID: "u-1"})
	cookie := commit(t, sm, sess)

	sess = load(t, sm, cookie)
	sm.Destroy(sess)
	cleared := commit(t, sm, sess)

	assert.False(t, mr.Exists("session:"+cookie.Value))
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
	_, ok := sess.Principal()
	assert.False(t, ok)
}

func TestCSRFVerifyRequest(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrf-secret")
	sess := load(t, sm, nil)
	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	again, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	build := func(method, header string) *http.Request {
		req := httptest.NewRequest(method, "/api/auth/logout", nil)
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		return req.WithContext(ContextWithSession(req.Context(), sess))
	}

	assert.NoError(t, csrf.VerifyRequest(build(http.MethodGet, "")))
	assert.NoError(t, csrf.VerifyRequest(build(http.MethodPost, token)))
	assert.ErrorIs(t, csrf.VerifyRequest(build(http.MethodPost, "")), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyRequest(build(http.MethodPost, "nope")), ErrCSRFTokenMismatch)
}
