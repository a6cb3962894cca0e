// Package jobs looks up the state of background jobs backing runs.
package jobs

import (
	"context"
	"time"

	"github.com/RichardKnop/machinery/v1/tasks"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/cache"
	"mlbench-api-server/internal/telemetry"
)

const completedTTL = 10 * time.Minute

// Backend is the slice of the job-execution backend the tracker reads from.
type Backend interface {
	GetState(uuid string) (*tasks.TaskState, error)
}

type Metadata struct {
	JobID     string        `json:"job_id"`
	State     string        `json:"state"`
	TaskName  string        `json:"task_name,omitempty"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	Error     string        `json:"error,omitempty"`
	Results   []interface{} `json:"results,omitempty"`
}

func (m *Metadata) Succeeded() bool {
	return m.State == tasks.StateSuccess
}

func (m *Metadata) Failed() bool {
	return m.State == tasks.StateFailure
}

type Tracker struct {
	backend Backend
	cache   *cache.Cache
	timeout time.Duration
	logger  *zap.Logger
}

func NewTracker(backend Backend, cache *cache.Cache, timeout time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		backend: backend,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
	}
}

func cacheKey(jobID string) string {
	return "job:" + jobID
}

// Fetch returns the job's current metadata. Failures are reported as
// ExternalUnavailable; completed jobs are served from cache.
func (t *Tracker) Fetch(ctx context.Context, jobID string) (*Metadata, error) {
	if t.cache != nil {
		if item, ok := t.cache.Get(cacheKey(jobID)); ok {
			return item.(*Metadata), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		state *tasks.TaskState
		err   error
	}
	// the backend call takes no context; its own redis timeouts bound the goroutine
	ch := make(chan result, 1)
	go func() {
		state, err := t.backend.GetState(jobID)
		ch <- result{state: state, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-ch:
	}

	if res.err == nil && res.state == nil {
		res.err = errors.NotFoundErr("job", jobID)
	}
	if res.err != nil {
		telemetry.RecordJobLookupFailure()
		t.logger.Warn("job lookup failed", zap.String("job", jobID), zap.Error(res.err))
		return nil, errors.UnavailableErr("job backend", res.err)
	}

	metadata := newMetadata(jobID, res.state)
	if t.cache != nil && res.state.IsCompleted() {
		t.cache.SetWithTTL(cacheKey(jobID), metadata, completedTTL)
	}
	return metadata, nil
}

func newMetadata(jobID string, state *tasks.TaskState) *Metadata {
	m := &Metadata{
		JobID:    jobID,
		State:    state.State,
		TaskName: state.TaskName,
		Error:    state.Error,
	}
	if !state.CreatedAt.IsZero() {
		createdAt := state.CreatedAt.UTC()
		m.CreatedAt = &createdAt
	}
	for _, r := range state.Results {
		if r != nil {
			m.Results = append(m.Results, r.Value)
		}
	}
	return m
}
