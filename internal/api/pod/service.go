package pod

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
)

type podService struct {
	repository PodRepository
	logger     *zap.Logger
}

var _ PodService = (*podService)(nil)

func NewPodService(r PodRepository, logger *zap.Logger) PodService {
	return &podService{
		repository: r,
		logger:     logger,
	}
}

func (ps *podService) GetAllPod(ctx context.Context) ([]models.Pod, error) {
	pods, err := ps.repository.GetAllPod(ctx)
	if err != nil {
		ps.logger.Error("failed to get pod from database", zap.Error(err))
		return nil, err
	}
	return pods, nil
}

func (ps *podService) Sync(ctx context.Context, runID string, observed []cluster.WorkerPod) (SyncResult, error) {
	var result SyncResult

	names := lo.Map(observed, func(p cluster.WorkerPod, _ int) string { return p.Name })
	known, err := ps.repository.GetPodsByNames(ctx, names)
	if err != nil {
		return result, fmt.Errorf("get pods: %w", err)
	}
	byName := lo.KeyBy(known, func(p models.Pod) string { return p.Name })

	for _, o := range observed {
		existing, ok := byName[o.Name]
		if !ok {
			pod := &models.Pod{
				Name:      o.Name,
				Labels:    o.Labels,
				IP:        o.IP,
				Phase:     o.Phase,
				RunID:     &runID,
				CreatedAt: time.Now().UTC(),
			}
			if err := ps.repository.CreatePod(ctx, pod); err != nil {
				return result, fmt.Errorf("create pod %s: %w", o.Name, err)
			}
			ps.logger.Info("new worker pod", zap.String("pod", o.Name), zap.String("run", runID))
			result.Created++
			continue
		}

		if existing.RunID == nil || *existing.RunID != runID {
			ps.logger.Warn("pod name already owned by another run", zap.String("pod", o.Name), zap.String("run", runID))
			result.Skipped++
			continue
		}
		if existing.Phase != o.Phase {
			if err := ps.repository.UpdatePhase(ctx, existing.ID, o.Phase); err != nil {
				return result, fmt.Errorf("update pod %s: %w", o.Name, err)
			}
			result.Refreshed++
		}
	}
	return result, nil
}
