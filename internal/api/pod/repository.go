package pod

import (
	"context"

	"gorm.io/gorm"

	"mlbench-api-server/internal/models"
)

type podRepository struct {
	db *gorm.DB
}

var _ PodRepository = (*podRepository)(nil)

func NewPodRepository(db *gorm.DB) PodRepository {
	return &podRepository{
		db: db,
	}
}

func (r *podRepository) GetAllPod(ctx context.Context) ([]models.Pod, error) {
	var pods []models.Pod
	err := r.db.WithContext(ctx).Order("name").Find(&pods).Error
	if err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *podRepository) GetPodsByNames(ctx context.Context, names []string) ([]models.Pod, error) {
	var pods []models.Pod
	if len(names) == 0 {
		return pods, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&pods).Error
	if err != nil {
		return nil, err
	}
	return pods, nil
}

func (r *podRepository) CreatePod(ctx context.Context, pod *models.Pod) error {
	return r.db.WithContext(ctx).Create(pod).Error
}

func (r *podRepository) UpdatePhase(ctx context.Context, id uint, phase string) error {
	return r.db.WithContext(ctx).
		Model(&models.Pod{}).
		Where("id = ?", id).
		Update("phase", phase).
		Error
}
