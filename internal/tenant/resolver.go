package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultSystemLabel is the subdomain reserved for the platform operator.
const DefaultSystemLabel = "admin"

// DefaultLookupTimeout bounds a single tenant lookup.
const DefaultLookupTimeout = 3 * time.Second

// Outcomes reported to the Recorder.
const (
	OutcomeResolved   = "resolved"
	OutcomeSuperAdmin = "super_admin"
	OutcomeNoTenant   = "no_tenant"
	OutcomeNotFound   = "not_found"
	OutcomeTimeout    = "timeout"
	OutcomeError      = "error"
)

// Recorder observes resolution outcomes.
type Recorder interface {
	RecordTenantResolution(outcome string)
}

// ResolverConfig tunes host interpretation.
type ResolverConfig struct {
	// BaseDomain is the apex the school subdomains hang off, e.g. learnova.app.
	BaseDomain string
	// SystemLabel is the reserved subdomain of the super-admin console.
	SystemLabel string
	// DevHosts are host names treated like loopback hosts.
	DevHosts []string
	// Timeout bounds each lookup; the default context is served past it.
	Timeout time.Duration
}

// Resolver turns request hosts into tenant resolutions.
type Resolver struct {
	store   Store
	cfg     ResolverConfig
	devs    map[string]struct{}
	group   singleflight.Group
	metrics Recorder
	logger  *slog.Logger
}

// NewResolver constructs a Resolver. metrics may be nil.
func NewResolver(store Store, cfg ResolverConfig, metrics Recorder, logger *slog.Logger) *Resolver {
	if cfg.SystemLabel == "" {
		cfg.SystemLabel = DefaultSystemLabel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	devs := make(map[string]struct{}, len(cfg.DevHosts))
	for _, h := range cfg.DevHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			devs[h] = struct{}{}
		}
	}
	return &Resolver{store: store, cfg: cfg, devs: devs, metrics: metrics, logger: logger}
}

// Resolve interprets host. It never fails: lookup problems are logged and
// answered with the default context marked as degraded.
func (r *Resolver) Resolve(ctx context.Context, host string) Resolution {
	h := ParseHost(host, r.cfg.BaseDomain)
	if _, dev := r.devs[h.Name]; dev || h.Loopback || h.Subdomain == strings.ToLower(r.cfg.SystemLabel) {
		r.record(OutcomeSuperAdmin)
		return Resolution{SuperAdmin: true}
	}
	if h.Subdomain == "" {
		r.record(OutcomeNoTenant)
		return Resolution{Degraded: true}
	}
	c, err := r.lookup(ctx, h.Subdomain)
	if err != nil {
		outcome := OutcomeError
		switch {
		case errors.Is(err, ErrNotFound):
			outcome = OutcomeNotFound
		case errors.Is(err, context.DeadlineExceeded):
			outcome = OutcomeTimeout
		}
		r.record(outcome)
		r.logger.Warn("tenant resolution failed", slog.String("slug", h.Subdomain), slog.String("outcome", outcome), slog.Any("error", err))
		return Resolution{Degraded: true, Transient: outcome != OutcomeNotFound}
	}
	r.record(OutcomeResolved)
	return Resolution{Context: c}
}

// lookup coalesces concurrent lookups of one slug and bounds them by the
// configured timeout. A caller whose own context ends stops waiting without
// cancelling the shared lookup.
func (r *Resolver) lookup(ctx context.Context, slug string) (Context, error) {
	ch := r.group.DoChan(slug, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		defer cancel()
		c, err := r.store.FindBySlug(lookupCtx, slug)
		if err != nil && errors.Is(lookupCtx.Err(), context.DeadlineExceeded) {
			return Context{}, context.DeadlineExceeded
		}
		return c, err
	})
	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Context{}, ctx.Err()
	case <-timer.C:
		return Context{}, context.DeadlineExceeded
	case res := <-ch:
		if res.Err != nil {
			return Context{}, res.Err
		}
		return res.Val.(Context), nil
	}
}

func (r *Resolver) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordTenantResolution(outcome)
	}
}

// Middleware resolves the request host once and attaches the result to the
// request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		res := r.Resolve(req.Context(), req.Host)
		next.ServeHTTP(w, req.WithContext(ContextWithResolution(req.Context(), res)))
	})
}
