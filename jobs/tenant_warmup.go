package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/learnova/learnova/internal/jobs"
	"github.com/learnova/learnova/internal/tenant"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SlugLister enumerates active school slugs.
type SlugLister interface {
	ListSlugs(ctx context.Context) ([]string, error)
}

// TenantRefresher reloads one cached tenant.
type TenantRefresher interface {
	Refresh(ctx context.Context, slug string) error
}

// TenantWarmupJob keeps the tenant cache populated so that request time
// resolution rarely reaches the database.
type TenantWarmupJob struct {
	Slugs   SlugLister
	Cache   TenantRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	// PerTenantTimeout bounds each refresh.
	PerTenantTimeout time.Duration
}

// NewTenantWarmupJob wires dependencies for the warmup handler.
func NewTenantWarmupJob(slugs SlugLister, cache TenantRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *TenantWarmupJob {
	return &TenantWarmupJob{Slugs: slugs, Cache: cache, Logger: logger, Metrics: metrics, PerTenantTimeout: 5 * time.Second}
}

// Handle processes tenant warmup tasks. Individual school failures are logged
// and counted; the task fails only when the slug list cannot be loaded.
func (j *TenantWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Cache == nil {
		return errors.New("tenant warmup: handler not configured")
	}
	var payload TenantWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskTenantCacheWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	slugs := []string{payload.Slug}
	if payload.Slug == "" {
		if j.Slugs == nil {
			return errors.New("tenant warmup: slug lister not configured")
		}
		listed, err := j.Slugs.ListSlugs(ctx)
		if err != nil {
			logger.Error("list tenant slugs", slog.Any("error", err))
			return err
		}
		slugs = listed
	}

	refreshed, missing, failed := 0, 0, 0
	for _, slug := range slugs {
		if err := j.refresh(ctx, slug); err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				missing++
				continue
			}
			failed++
			logger.Warn("refresh tenant", slog.String("slug", slug), slog.Any("error", err))
			continue
		}
		refreshed++
	}
	j.metrics().AddRefreshed("refreshed", refreshed)
	j.metrics().AddRefreshed("missing", missing)
	j.metrics().AddRefreshed("failed", failed)

	logger.Info("completed tenant warmup",
		slog.Int("refreshed", refreshed),
		slog.Int("missing", missing),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *TenantWarmupJob) refresh(ctx context.Context, slug string) error {
	timeout := j.PerTenantTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	refreshCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return j.Cache.Refresh(refreshCtx, slug)
}

func (j *TenantWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTenantCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTenantCacheWarmup))
}

func (j *TenantWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
