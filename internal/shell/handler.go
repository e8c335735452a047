// Package shell serves the data the portal chrome renders around every page:
// the tenant branding and the navigation of the signed-in user.
package shell

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/auth"
	"github.com/learnova/learnova/internal/navigation"
	"github.com/learnova/learnova/internal/platform/httpx"
	"github.com/learnova/learnova/internal/tenant"
)

// BadgeResetter clears a badge counter once its target has been viewed.
type BadgeResetter interface {
	Reset(ctx context.Context, owner, key string) error
}

// Handler exposes the shell endpoints.
type Handler struct {
	resolver *navigation.Resolver
	badges   BadgeResetter
	logger   *slog.Logger
}

// NewHandler constructs a Handler. badges may be nil when counters are off.
func NewHandler(resolver *navigation.Resolver, badges BadgeResetter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{resolver: resolver, badges: badges, logger: logger}
}

// MountRoutes attaches shell routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/shell", h.shell)
	r.Get("/tenant", h.tenant)
	r.Get("/navigation", h.navigation)
	r.With(auth.RequireAuthenticated).Post("/navigation/badges/{key}/seen", h.badgeSeen)
}

type shellResponse struct {
	Tenant     tenant.Context  `json:"tenant"`
	SuperAdmin bool            `json:"superAdmin"`
	Loading    bool            `json:"loading"`
	Degraded   bool            `json:"degraded"`
	Navigation navigation.Menu `json:"navigation"`
}

func (h *Handler) shell(w http.ResponseWriter, r *http.Request) {
	res := tenant.FromContext(r.Context())
	httpx.JSON(w, http.StatusOK, shellResponse{
		Tenant:     res.Context,
		SuperAdmin: res.SuperAdmin,
		Loading:    res.Loading,
		Degraded:   res.Degraded,
		Navigation: h.menu(r),
	})
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, tenant.FromContext(r.Context()))
}

func (h *Handler) navigation(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.menu(r))
}

func (h *Handler) badgeSeen(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	m := access.FromContext(r.Context())
	catalog, ok := h.resolver.Catalog(navigation.Classify(m))
	if !ok || !slices.Contains(navigation.BadgeKeys(navigation.Filter(catalog, m)), key) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown badge")
		return
	}
	if h.badges != nil {
		if err := h.badges.Reset(r.Context(), owner(r.Context()), key); err != nil {
			h.logger.Warn("reset badge", slog.String("badge", key), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "badge counters unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) menu(r *http.Request) navigation.Menu {
	return h.resolver.Resolve(r.Context(), access.FromContext(r.Context()), owner(r.Context()))
}

func owner(ctx context.Context) string {
	p, ok := auth.CurrentPrincipal(ctx)
	if !ok {
		return ""
	}
	return navigation.Owner(p.TenantSlug, p.UserID)
}
