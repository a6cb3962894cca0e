package metric

import (
	"context"
	"database/sql"
	stderrors "errors"

	"gorm.io/gorm"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/models"
)

type metricRepository struct {
	db           *gorm.DB
	snapshotOpts []*sql.TxOptions
}

var _ MetricRepository = (*metricRepository)(nil)

func NewMetricRepository(db *gorm.DB) MetricRepository {
	r := &metricRepository{
		db: db,
	}
	// sqlite transactions are serializable already and reject explicit levels
	if db.Dialector.Name() == "postgres" {
		r.snapshotOpts = []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	}
	return r
}

func (r *metricRepository) GetPodByName(ctx context.Context, name string) (*models.Pod, error) {
	var pod models.Pod
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&pod).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundErr("pod", name)
	}
	if err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *metricRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundErr("run", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *metricRepository) GetPodsByRun(ctx context.Context, runID string) ([]models.Pod, error) {
	var pods []models.Pod
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("name").Find(&pods).Error
	if err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *metricRepository) GetAllPod(ctx context.Context) ([]models.Pod, error) {
	var pods []models.Pod
	err := r.db.WithContext(ctx).Order("name").Find(&pods).Error
	if err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *metricRepository) GetAllRun(ctx context.Context) ([]models.Run, error) {
	var runs []models.Run
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *metricRepository) GetMetricsByPods(ctx context.Context, podIDs []uint) ([]models.Metric, error) {
	var metrics []models.Metric
	if len(podIDs) == 0 {
		return metrics, nil
	}
	err := r.db.WithContext(ctx).Where("pod_id IN ?", podIDs).Order("id").Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (r *metricRepository) GetMetricsByRun(ctx context.Context, runID string) ([]models.Metric, error) {
	var metrics []models.Metric
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (r *metricRepository) GetAllMetric(ctx context.Context) ([]models.Metric, error) {
	var metrics []models.Metric
	err := r.db.WithContext(ctx).Order("id").Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

func (r *metricRepository) CreateMetric(ctx context.Context, metric *models.Metric) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

func (r *metricRepository) Snapshot(ctx context.Context, fn func(MetricRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&metricRepository{db: tx, snapshotOpts: r.snapshotOpts})
	}, r.snapshotOpts...)
}
