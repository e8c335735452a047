package auth

import (
	"net/http"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/platform/httpx"
)

// RequireAny admits callers holding at least one of perms. An empty list
// guards nothing. Anonymous callers get 401, signed-in callers without the
// permission get 403.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(perms, func(m *access.Model) bool { return m.HasAnyPermission(perms...) })
}

// RequireAll admits callers holding every one of perms.
func RequireAll(perms ...string) func(http.Handler) http.Handler {
	return guard(perms, func(m *access.Model) bool { return m.HasAllPermissions(perms...) })
}

func guard(perms []string, allowed func(*access.Model) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(perms) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentPrincipal(r.Context()); !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
				return
			}
			if !allowed(access.FromContext(r.Context())) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
