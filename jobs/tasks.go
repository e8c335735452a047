package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTenantCacheWarmup refreshes cached tenant contexts.
	TaskTenantCacheWarmup = "tenant:cache_warmup"
)

// TenantWarmupPayload selects the schools to refresh. An empty slug refreshes
// every active school.
type TenantWarmupPayload struct {
	Slug string `json:"slug,omitempty"`
}

// NewTenantWarmupTask constructs the warmup task.
func NewTenantWarmupTask(slug string) (*asynq.Task, error) {
	data, err := json.Marshal(TenantWarmupPayload{Slug: slug})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTenantCacheWarmup, data), nil
}
