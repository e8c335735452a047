package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// StaticStore serves schools from memory.
type StaticStore struct {
	schools map[string]Context
}

// NewStaticStore builds a StaticStore keyed by each context's slug.
func NewStaticStore(schools ...Context) *StaticStore {
	m := make(map[string]Context, len(schools))
	for _, s := range schools {
		m[strings.ToLower(s.Slug)] = s
	}
	return &StaticStore{schools: m}
}

// DemoSchool is the offline school served when no database is configured.
func DemoSchool() Context {
	return Context{
		TenantID:   "00000000-0000-0000-0000-000000000001",
		Slug:       "demo",
		SchoolName: "Learnova Demo Academy",
		Branding: Branding{
			Logo:           "/static/schools/demo/logo.svg",
			PrimaryColor:   "#1d4ed8",
			SecondaryColor: "#f59e0b",
		},
		Academic: AcademicConfig{
			CurrentSessionID: "2025-2026",
			CurrentTermID:    "first-term",
			GradingSystem:    "waec",
			AttendanceType:   "daily",
			PromotionRules:   "average>=50",
		},
	}
}

// FindBySlug implements Store.
func (s *StaticStore) FindBySlug(ctx context.Context, slug string) (Context, error) {
	c, ok := s.schools[strings.ToLower(slug)]
	if !ok {
		return Context{}, ErrNotFound
	}
	return c, nil
}

// ListSlugs returns the known slugs.
func (s *StaticStore) ListSlugs(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(s.schools))
	for slug := range s.schools {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

// PGStore reads schools from PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const findSchoolBySlug = `
SELECT s.id::text, s.slug, s.name,
       COALESCE(s.logo_url, ''), COALESCE(s.primary_color, ''), COALESCE(s.secondary_color, ''),
       COALESCE(a.current_session_id::text, ''), COALESCE(a.current_term_id::text, ''),
       COALESCE(a.grading_system, ''), COALESCE(a.attendance_type, ''), COALESCE(a.promotion_rules, '')
FROM schools s
LEFT JOIN school_academic_settings a ON a.school_id = s.id
WHERE s.slug = $1 AND s.is_active
`

// FindBySlug implements Store.
func (s *PGStore) FindBySlug(ctx context.Context, slug string) (Context, error) {
	var c Context
	err := s.pool.QueryRow(ctx, findSchoolBySlug, strings.ToLower(slug)).Scan(
		&c.TenantID, &c.Slug, &c.SchoolName,
		&c.Branding.Logo, &c.Branding.PrimaryColor, &c.Branding.SecondaryColor,
		&c.Academic.CurrentSessionID, &c.Academic.CurrentTermID,
		&c.Academic.GradingSystem, &c.Academic.AttendanceType, &c.Academic.PromotionRules,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Context{}, ErrNotFound
		}
		return Context{}, fmt.Errorf("tenant/pg: find %q: %w", slug, err)
	}
	return c, nil
}

// ListSlugs returns the slugs of every active school.
func (s *PGStore) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug FROM schools WHERE is_active ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("tenant/pg: list slugs: %w", err)
	}
	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("tenant/pg: list slugs: %w", err)
	}
	return slugs, nil
}

// CachedStore caches another store's results in Redis.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps next with a Redis cache.
func NewCachedStore(next Store, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl}
}

// FindBySlug serves from cache, falling back to the wrapped store. Cache
// errors never fail a lookup the wrapped store can answer.
func (s *CachedStore) FindBySlug(ctx context.Context, slug string) (Context, error) {
	if s.client == nil {
		return s.next.FindBySlug(ctx, slug)
	}
	payload, err := s.client.Get(ctx, cacheKey(slug)).Bytes()
	if err == nil {
		var c Context
		if err := json.Unmarshal(payload, &c); err == nil {
			return c, nil
		}
	}
	c, err := s.next.FindBySlug(ctx, slug)
	if err != nil {
		return Context{}, err
	}
	_ = s.put(ctx, slug, c)
	return c, nil
}

// Refresh reloads slug from the wrapped store and overwrites the cache entry.
func (s *CachedStore) Refresh(ctx context.Context, slug string) error {
	c, err := s.next.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = s.Invalidate(ctx, slug)
		}
		return err
	}
	return s.put(ctx, slug, c)
}

func (s *CachedStore) put(ctx context.Context, slug string, c Context) error {
	if s.client == nil {
		return nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("tenant/cache: encode: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(slug), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("tenant/cache: set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry of slug.
func (s *CachedStore) Invalidate(ctx context.Context, slug string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, cacheKey(slug)).Err()
}

func cacheKey(slug string) string {
	return "tenant:" + strings.ToLower(slug)
}

var (
	_ Store = (*StaticStore)(nil)
	_ Store = (*PGStore)(nil)
	_ Store = (*CachedStore)(nil)
)
