package run

import (
	"context"
	"time"

	"github.com/RichardKnop/machinery/v1/tasks"

	"mlbench-api-server/internal/jobs"
	"mlbench-api-server/internal/models"
)

// TaskName is the job submitted for every started run.
const TaskName = "mlbench_run"

type RunRepository interface {
	Get(ctx context.Context, id string) (*models.Run, error)
	List(ctx context.Context) ([]models.Run, error)
	// GetStarted returns the active run, nil when there is none.
	GetStarted(ctx context.Context) (*models.Run, error)
	// Create inserts a CREATED run unless a run is active.
	Create(ctx context.Context, run *models.Run) error
	// CreateAndReserve inserts a CREATED run and takes the active slot for it
	// in one transaction.
	CreateAndReserve(ctx context.Context, run *models.Run) error
	// Reserve takes the active slot for an existing CREATED run.
	Reserve(ctx context.Context, id string) error
	// Release frees the slot if id holds it.
	Release(ctx context.Context, id string) error
	// MarkStarted moves a CREATED run holding the slot to STARTED.
	MarkStarted(ctx context.Context, id, jobID string) error
	// ReleaseStale frees a slot reserved before reservedBefore by a run that
	// never started, returning that run's id.
	ReleaseStale(ctx context.Context, reservedBefore time.Time) (string, error)
	// Finish moves a STARTED run to a terminal state and frees the slot.
	Finish(ctx context.Context, id string, state models.RunState, finishedAt time.Time) error
	// Delete removes the run with its pods and all metrics they own.
	Delete(ctx context.Context, id string) error
}

type RunService interface {
	Create(ctx context.Context, req CreateRequest) (*models.Run, error)
	Start(ctx context.Context, id string) (*models.Run, error)
	CreateAndStart(ctx context.Context, req CreateRequest) (*models.Run, error)
	Get(ctx context.Context, id string) (*RunView, error)
	List(ctx context.Context) ([]models.Run, error)
	Delete(ctx context.Context, id string) error
	Finish(ctx context.Context, id string, state models.RunState) (*models.Run, error)
	// Reconcile frees a slot abandoned by a run that never started and
	// finishes the active run once its job completed.
	Reconcile(ctx context.Context) error
}

// JobSubmitter hands a task to the job-execution backend and returns its handle.
type JobSubmitter interface {
	SendTask(ctx context.Context, task *tasks.Signature) (string, error)
}

type JobFetcher interface {
	Fetch(ctx context.Context, jobID string) (*jobs.Metadata, error)
}

type CreateRequest struct {
	Name         string   `json:"name"`
	NumCPUs      *float64 `json:"num_cpus"`
	NumWorkers   *int     `json:"num_workers"`
	MaxBandwidth *int     `json:"max_bandwidth"`
}

type FinishRequest struct {
	State models.RunState `json:"state"`
}

// RunView is a run with the live state of its job, when it could be fetched.
type RunView struct {
	models.Run
	JobMetadata *jobs.Metadata `json:"job_metadata,omitempty"`
}

func NewSignature(runID string) *tasks.Signature {
	return &tasks.Signature{
		Name: TaskName,
		Args: []tasks.Arg{
			{Name: "runID", Type: "string", Value: runID},
		},
	}
}
