package run

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/models"
	"mlbench-api-server/internal/telemetry"
	"mlbench-api-server/internal/utils"
)

type runService struct {
	repository RunRepository
	submitter  JobSubmitter
	tracker    JobFetcher
	jobTimeout time.Duration
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

var _ RunService = (*runService)(nil)

// NewRunService builds the service. tracker may be nil, run views then
// carry no job metadata.
func NewRunService(r RunRepository, submitter JobSubmitter, tracker JobFetcher, jobTimeout time.Duration, logger *zap.Logger) RunService {
	return &runService{
		repository: r,
		submitter:  submitter,
		tracker:    tracker,
		jobTimeout: jobTimeout,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (rs *runService) newRun(req CreateRequest) (*models.Run, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequestErr("name is required")
	}
	if req.NumCPUs == nil {
		return nil, errors.BadRequestErr("num_cpus is required")
	}
	cpuLimit, err := utils.MilliCPU(*req.NumCPUs)
	if err != nil {
		return nil, errors.BadRequestErr("invalid num_cpus: %v", err)
	}
	if req.NumWorkers == nil || *req.NumWorkers < 1 {
		return nil, errors.BadRequestErr("num_workers must be at least 1")
	}
	if req.MaxBandwidth == nil || *req.MaxBandwidth < 0 {
		return nil, errors.BadRequestErr("max_bandwidth must not be negative")
	}

	return &models.Run{
		ID:                    rs.newID(),
		Name:                  name,
		State:                 models.RunCreated,
		NumWorkers:            *req.NumWorkers,
		CPULimit:              cpuLimit,
		NetworkBandwidthLimit: *req.MaxBandwidth,
		CreatedAt:             rs.now(),
	}, nil
}

func (rs *runService) conflict(err error, name string) error {
	if errors.Is(err, errors.KindConflict) {
		telemetry.RecordRunConflict()
		rs.logger.Info("run rejected, another run is active", zap.String("name", name))
	}
	return err
}

func (rs *runService) Create(ctx context.Context, req CreateRequest) (*models.Run, error) {
	run, err := rs.newRun(req)
	if err != nil {
		return nil, err
	}
	if err := rs.repository.Create(ctx, run); err != nil {
		return nil, rs.conflict(err, run.Name)
	}
	rs.logger.Info("run created", zap.String("run", run.ID), zap.String("name", run.Name))
	return run, nil
}

func (rs *runService) Start(ctx context.Context, id string) (*models.Run, error) {
	run, err := rs.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.State != models.RunCreated {
		return nil, errors.BadRequestErr("run %s is %s, only CREATED runs can start", id, run.State)
	}
	if err := rs.repository.Reserve(ctx, id); err != nil {
		return nil, rs.conflict(err, run.Name)
	}

	started, err := rs.launch(ctx, run)
	if err != nil {
		if rerr := rs.repository.Release(context.Background(), id); rerr != nil {
			rs.logger.Error("failed to release active run slot", zap.String("run", id), zap.Error(rerr))
		}
		return nil, err
	}
	return started, nil
}

func (rs *runService) CreateAndStart(ctx context.Context, req CreateRequest) (*models.Run, error) {
	run, err := rs.newRun(req)
	if err != nil {
		return nil, err
	}
	if err := rs.repository.CreateAndReserve(ctx, run); err != nil {
		return nil, rs.conflict(err, run.Name)
	}

	started, err := rs.launch(ctx, run)
	if err != nil {
		if derr := rs.repository.Delete(context.Background(), run.ID); derr != nil {
			rs.logger.Error("failed to remove unstarted run", zap.String("run", run.ID), zap.Error(derr))
		}
		return nil, err
	}
	return started, nil
}

// launch submits the job and records the run as STARTED. On error the run
// is still CREATED and the caller owns the reserved slot.
func (rs *runService) launch(ctx context.Context, run *models.Run) (*models.Run, error) {
	jobID, err := rs.submit(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	started, err := rs.markStarted(ctx, run, jobID)
	if err != nil {
		rs.logger.Error("job submitted but run not marked started",
			zap.String("run", run.ID),
			zap.String("job", jobID),
			zap.Error(err))
		return nil, err
	}
	return started, nil
}

// submit runs outside any transaction, the slot row stays unlocked while
// the backend is contacted.
func (rs *runService) submit(ctx context.Context, runID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.jobTimeout)
	defer cancel()

	jobID, err := rs.submitter.SendTask(ctx, NewSignature(runID))
	if err == nil && jobID == "" {
		err = fmt.Errorf("backend returned an empty job id")
	}
	if err != nil {
		rs.logger.Warn("job submission failed", zap.String("run", runID), zap.Error(err))
		return "", errors.UnavailableErr("job backend", err)
	}
	return jobID, nil
}

func (rs *runService) markStarted(ctx context.Context, run *models.Run, jobID string) (*models.Run, error) {
	if err := rs.repository.MarkStarted(ctx, run.ID, jobID); err != nil {
		return nil, err
	}
	run.State = models.RunStarted
	run.JobID = &jobID
	rs.logger.Info("run started",
		zap.String("run", run.ID),
		zap.String("name", run.Name),
		zap.String("job", jobID))
	return run, nil
}

func (rs *runService) Get(ctx context.Context, id string) (*RunView, error) {
	run, err := rs.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &RunView{Run: *run}
	if run.JobID == nil || rs.tracker == nil {
		return view, nil
	}

	metadata, err := rs.tracker.Fetch(ctx, *run.JobID)
	if err != nil {
		rs.logger.Debug("serving run without job metadata", zap.String("run", id), zap.Error(err))
		return view, nil
	}
	view.JobMetadata = metadata
	return view, nil
}

func (rs *runService) List(ctx context.Context) ([]models.Run, error) {
	runs, err := rs.repository.List(ctx)
	if err != nil {
		rs.logger.Error("failed to get runs from database", zap.Error(err))
		return nil, err
	}
	return runs, nil
}

func (rs *runService) Delete(ctx context.Context, id string) error {
	if err := rs.repository.Delete(ctx, id); err != nil {
		return err
	}
	rs.logger.Info("run deleted", zap.String("run", id))
	return nil
}

func (rs *runService) Finish(ctx context.Context, id string, state models.RunState) (*models.Run, error) {
	if !state.Terminal() {
		return nil, errors.BadRequestErr("state must be %s or %s", models.RunFinished, models.RunFailed)
	}
	if err := rs.repository.Finish(ctx, id, state, rs.now()); err != nil {
		return nil, err
	}
	rs.logger.Info("run finished", zap.String("run", id), zap.String("state", string(state)))
	return rs.repository.Get(ctx, id)
}

func (rs *runService) Reconcile(ctx context.Context) error {
	// a reservation outliving the submission timeout was abandoned mid-start
	freed, err := rs.repository.ReleaseStale(ctx, rs.now().Add(-rs.jobTimeout))
	if err != nil {
		return err
	}
	if freed != "" {
		rs.logger.Warn("released active run slot held by a run that never started", zap.String("run", freed))
	}

	run, err := rs.repository.GetStarted(ctx)
	if err != nil {
		return err
	}
	if run == nil || run.JobID == nil || rs.tracker == nil {
		return nil
	}

	metadata, err := rs.tracker.Fetch(ctx, *run.JobID)
	if err != nil {
		// retried on the next tick
		return nil
	}

	var state models.RunState
	switch {
	case metadata.Succeeded():
		state = models.RunFinished
	case metadata.Failed():
		state = models.RunFailed
		rs.logger.Warn("run job failed", zap.String("run", run.ID), zap.String("error", metadata.Error))
	default:
		return nil
	}
	_, err = rs.Finish(ctx, run.ID, state)
	return err
}
