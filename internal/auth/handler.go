package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/platform/httpx"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/tenant"
)

// AuditRecorder receives sign-in and sign-out events.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	audit          AuditRecorder
	validator      *validator.Validate
	loginLimit     int
}

// NewHandler constructs a Handler instance. audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, audit AuditRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		audit:          audit,
		validator:      validator.New(),
		loginLimit:     10,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.handleCSRF)
	r.Get("/me", h.handleMe)
	r.With(httprate.LimitByIP(h.loginLimit, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsSystem    bool     `json:"isSystem"`
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	CSRFToken string       `json:"csrfToken"`
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	p, ok := CurrentPrincipal(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{User: toUserResponse(p), CSRFToken: token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed login payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			httpx.ValidationProblem(w, fields)
			return
		}
		httpx.RespondError(w, err)
		return
	}

	res := tenant.FromContext(r.Context())
	if !res.SuperAdmin && res.Context.IsZero() {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "school could not be resolved")
		return
	}

	user, err := h.service.Authenticate(r.Context(), res.Context.TenantID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("tenant", res.Context.Slug))
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
			return
		}
		if errors.Is(err, ErrAccountsUnavailable) {
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "sign-in is not available")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.sessionManager.Renew(sess)
	sess.Delete(shared.CSRFSessionKey)
	principal := shared.Principal{
		UserID:     user.ID,
		Email:      user.Email,
		TenantSlug: res.Context.Slug,
		Access:     user.Access(),
	}
	sess.SetPrincipal(principal)
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.record(r.Context(), "auth.login", principal, res.Context.TenantID)

	httpx.JSON(w, http.StatusOK, sessionResponse{User: toUserResponse(principal), CSRFToken: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if p, ok := sess.Principal(); ok {
			if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
				h.logger.Warn("remove session", slog.Any("error", err))
			}
			h.record(r.Context(), "auth.logout", p, tenant.FromContext(r.Context()).Context.TenantID)
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) record(ctx context.Context, action string, p shared.Principal, tenantID string) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		TenantID: tenantID,
		Action:   action,
		Entity:   "user",
		EntityID: p.UserID,
		Meta:     map[string]any{"role": p.Access.Role},
	})
	if err != nil {
		h.logger.Warn("audit auth event", slog.String("action", action), slog.Any("error", err))
	}
}

func toUserResponse(p shared.Principal) userResponse {
	perms := access.FromUser(p.Access).Permissions()
	if perms == nil {
		perms = []string{}
	}
	return userResponse{
		ID:          p.UserID,
		Email:       p.Email,
		Role:        p.Access.Role,
		Permissions: perms,
		IsSystem:    p.Access.IsSystem,
	}
}
