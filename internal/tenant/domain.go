// Package tenant resolves which school a request belongs to.
package tenant

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no active school uses the slug.
var ErrNotFound = errors.New("tenant: not found")

// Branding holds the visual identity of a school.
type Branding struct {
	Logo           string `json:"logo"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

// AcademicConfig holds the academic defaults of a school.
type AcademicConfig struct {
	CurrentSessionID string `json:"currentSessionId"`
	CurrentTermID    string `json:"currentTermId"`
	GradingSystem    string `json:"gradingSystem"`
	AttendanceType   string `json:"attendanceType"`
	PromotionRules   string `json:"promotionRules"`
}

// Context is the tenant information consumed by the portal chrome. The zero
// value is the default context.
type Context struct {
	TenantID   string         `json:"tenantId"`
	Slug       string         `json:"tenantSlug"`
	SchoolName string         `json:"schoolName"`
	Branding   Branding       `json:"branding"`
	Academic   AcademicConfig `json:"academicConfig"`
}

// IsZero reports whether c is the default context.
func (c Context) IsZero() bool {
	return c == Context{}
}

// Resolution is the outcome of resolving a request origin. It is always
// replaced as a whole.
type Resolution struct {
	Context    Context `json:"tenant"`
	SuperAdmin bool    `json:"superAdmin"`
	// Loading is set only on the placeholder seen before resolution.
	Loading bool `json:"loading"`
	// Degraded marks a failed lookup served with the default context.
	Degraded bool `json:"degraded"`
	// Transient marks a degraded lookup that failed on the backend rather
	// than on an unknown or missing school.
	Transient bool `json:"-"`
}

// Pending is the placeholder resolution before a lookup has completed.
func Pending() Resolution {
	return Resolution{Loading: true}
}

// Store looks schools up by slug.
type Store interface {
	FindBySlug(ctx context.Context, slug string) (Context, error)
}

type resolutionContextKey struct{}

// ContextWithResolution stores the resolution in ctx.
func ContextWithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, res)
}

// FromContext returns the resolution attached to ctx or Pending.
func FromContext(ctx context.Context) Resolution {
	res, ok := ctx.Value(resolutionContextKey{}).(Resolution)
	if !ok {
		return Pending()
	}
	return res
}
