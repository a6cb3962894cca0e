package pod

import (
	"context"

	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
)

type PodRepository interface {
	GetAllPod(ctx context.Context) ([]models.Pod, error)
	GetPodsByNames(ctx context.Context, names []string) ([]models.Pod, error)
	CreatePod(ctx context.Context, pod *models.Pod) error
	UpdatePhase(ctx context.Context, id uint, phase string) error
}

type PodService interface {
	GetAllPod(ctx context.Context) ([]models.Pod, error)
	// Sync records the worker pods the cluster reports for a run.
	Sync(ctx context.Context, runID string, observed []cluster.WorkerPod) (SyncResult, error)
}

type SyncResult struct {
	Created   int
	Refreshed int
	Skipped   int
}
