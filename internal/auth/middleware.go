package auth

import (
	"context"
	"net/http"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/platform/httpx"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/tenant"
)

type principalContextKey struct{}

// Middleware attaches the signed-in principal and its access model to the
// request. A session signed in on another school is treated as anonymous.
// It must run after the session and tenant middlewares.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := shared.SessionFromContext(r.Context()).Principal()
		if !ok || !sameOrigin(p, tenant.FromContext(r.Context())) {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireAuthenticated rejects requests without a principal.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal attaches p and the access model built from its snapshot.
func WithPrincipal(ctx context.Context, p shared.Principal) context.Context {
	ctx = context.WithValue(ctx, principalContextKey{}, p)
	return access.WithModel(ctx, access.FromUser(p.Access))
}

// CurrentPrincipal returns the principal attached by Middleware.
func CurrentPrincipal(ctx context.Context) (shared.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(shared.Principal)
	return p, ok
}

func sameOrigin(p shared.Principal, res tenant.Resolution) bool {
	if res.SuperAdmin {
		return p.TenantSlug == ""
	}
	// A backend outage keeps the session rather than signing everyone out.
	if res.Context.IsZero() {
		return res.Degraded && res.Transient
	}
	return p.TenantSlug == res.Context.Slug
}
