package shell

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/auth"
	"github.com/learnova/learnova/internal/navigation"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/tenant"
)

type fixture struct {
	badges *navigation.RedisBadges
	mr     *miniredis.Miniredis
	res    tenant.Resolution
	user   *shared.Principal
	reset  BadgeResetter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	badges := navigation.NewRedisBadges(client)
	return &fixture{badges: badges, mr: mr, reset: badges, res: tenant.Resolution{Context: tenant.DemoSchool()}}
}

func (f *fixture) serve(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	resolver := navigation.NewResolver(navigation.DefaultCatalogs(), f.badges, nil, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := tenant.ContextWithResolution(req.Context(), f.res)
			if f.user != nil {
				ctx = auth.WithPrincipal(ctx, *f.user)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/api", NewHandler(resolver, f.reset, nil).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func parent() *shared.Principal {
	return &shared.Principal{
		UserID:     "u-parent",
		TenantSlug: "demo",
		Access: access.User{
			Role:        string(access.RoleParent),
			Permissions: []string{access.PermPortalParent, access.PermMessagesView, access.PermPaymentsView},
		},
	}
}

func TestShellAnonymous(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(t, http.MethodGet, "/api/shell")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tenant     tenant.Context  `json:"tenant"`
		Degraded   bool            `json:"degraded"`
		Navigation navigation.Menu `json:"navigation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Learnova Demo Academy", body.Tenant.SchoolName)
	assert.Equal(t, "#1d4ed8", body.Tenant.Branding.PrimaryColor)
	assert.False(t, body.Degraded)
	assert.Empty(t, body.Navigation.Sections)
	assert.Contains(t, rec.Body.String(), `"sections":[]`)
}

func TestShellParentWithBadge(t *testing.T) {
	f := newFixture(t)
	f.user = parent()
	_, err := f.badges.Incr(context.Background(), navigation.Owner("demo", "u-parent"), navigation.BadgeUnreadMessages, 3)
	require.NoError(t, err)

	rec := f.serve(t, http.MethodGet, "/api/navigation")
	require.Equal(t, http.StatusOK, rec.Code)

	var menu navigation.Menu
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	assert.Equal(t, navigation.AudienceParent, menu.Audience)
	var badge *int
	for _, section := range menu.Sections {
		for _, item := range section.Items {
			if item.Key == "parent.messages" {
				badge = item.BadgeCount
			}
		}
	}
	require.NotNil(t, badge)
	assert.Equal(t, 3, *badge)
}

func TestTenantEndpointReportsDegraded(t *testing.T) {
	f := newFixture(t)
	f.res = tenant.Resolution{Degraded: true}

	rec := f.serve(t, http.MethodGet, "/api/tenant")
	require.Equal(t, http.StatusOK, rec.Code)
	var res tenant.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Degraded)
	assert.True(t, res.Context.IsZero())
}

func TestBadgeSeenResetsCounter(t *testing.T) {
	f := newFixture(t)
	f.user = parent()
	owner := navigation.Owner("demo", "u-parent")
	_, err := f.badges.Incr(context.Background(), owner, navigation.BadgeUnreadMessages, 2)
	require.NoError(t, err)

	rec := f.serve(t, http.MethodPost, "/api/navigation/badges/"+navigation.BadgeUnreadMessages+"/seen")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	counts, err := f.badges.Counts(context.Background(), owner, []string{navigation.BadgeUnreadMessages})
	require.NoError(t, err)
	assert.Zero(t, counts[navigation.BadgeUnreadMessages])
}

func TestBadgeSeenRejectsInvisibleBadge(t *testing.T) {
	f := newFixture(t)
	f.user = parent()

	rec := f.serve(t, http.MethodPost, "/api/navigation/badges/"+navigation.BadgePendingAdmissions+"/seen")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadgeSeenRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(t, http.MethodPost, "/api/navigation/badges/"+navigation.BadgeUnreadMessages+"/seen")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type failingResetter struct{}

func (failingResetter) Reset(ctx context.Context, owner, key string) error {
	return errors.New("redis down")
}

func TestBadgeSeenBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.user = parent()
	f.reset = failingResetter{}

	rec := f.serve(t, http.MethodPost, "/api/navigation/badges/"+navigation.BadgeUnreadMessages+"/seen")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
