package run

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mlbench-api-server/internal/api/pod"
	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
)

// BenchmarkTask is the job body executed by the worker for a started run.
// It follows the run's worker pods until all of them terminated.
type BenchmarkTask struct {
	runs         RunRepository
	source       cluster.Source
	pods         pod.PodService
	pollInterval time.Duration
	deadline     time.Duration
	logger       *zap.Logger
}

func NewBenchmarkTask(runs RunRepository, source cluster.Source, pods pod.PodService, pollInterval, deadline time.Duration, logger *zap.Logger) *BenchmarkTask {
	return &BenchmarkTask{
		runs:         runs,
		source:       source,
		pods:         pods,
		pollInterval: pollInterval,
		deadline:     deadline,
		logger:       logger,
	}
}

// Run is registered under TaskName.
func (b *BenchmarkTask) Run(runID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.deadline)
	defer cancel()
	return b.run(ctx, runID)
}

func (b *BenchmarkTask) run(ctx context.Context, runID string) (string, error) {
	if b.source == nil {
		return "", fmt.Errorf("run %s: no cluster configured to follow worker pods", runID)
	}

	run, err := b.runs.Get(ctx, runID)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		observed, err := b.source.ListPods(ctx, cluster.WorkerSelector(runID))
		if err != nil {
			b.logger.Warn("list worker pods", zap.String("run", runID), zap.Error(err))
		} else {
			if _, err := b.pods.Sync(ctx, runID, observed); err != nil {
				b.logger.Warn("sync worker pods", zap.String("run", runID), zap.Error(err))
			}
			done, err := progress(run, observed)
			if err != nil {
				return "", err
			}
			if done {
				return fmt.Sprintf("%d workers succeeded", len(observed)), nil
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("run %s did not finish in time: %w", runID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// progress reports whether all expected workers succeeded, or an error once
// any of them failed.
func progress(run *models.Run, observed []cluster.WorkerPod) (bool, error) {
	succeeded := 0
	for _, p := range observed {
		if cluster.IsFailedPhase(p.Phase) {
			return false, fmt.Errorf("run %s: worker pod %s failed", run.ID, p.Name)
		}
		if cluster.IsTerminalPhase(p.Phase) {
			succeeded++
		}
	}
	return len(observed) >= run.NumWorkers && succeeded == len(observed), nil
}
