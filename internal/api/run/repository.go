package run

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/models"
)

const activeRunMessage = "another run is active, wait for it to finish"

type runRepository struct {
	db *gorm.DB
}

var _ RunRepository = (*runRepository)(nil)

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{
		db: db,
	}
}

func (r *runRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	return getRun(r.db.WithContext(ctx), id)
}

func getRun(db *gorm.DB, id string) (*models.Run, error) {
	var run models.Run
	err := db.Where("id = ?", id).First(&run).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFoundErr("run", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) List(ctx context.Context) ([]models.Run, error) {
	var runs []models.Run
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepository) GetStarted(ctx context.Context) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).Where("state = ?", models.RunStarted).First(&run).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) Create(ctx context.Context, run *models.Run) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.ActiveRunSlot
		if err := tx.Where("id = ?", models.ActiveRunSlotID).First(&slot).Error; err != nil {
			return err
		}
		if slot.RunID != nil {
			return errors.ConflictErr(activeRunMessage)
		}
		if err := ensureNoneStarted(tx); err != nil {
			return err
		}
		return tx.Create(run).Error
	})
}

func (r *runRepository) CreateAndReserve(ctx context.Context, run *models.Run) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserve(tx, run.ID); err != nil {
			return err
		}
		if err := ensureNoneStarted(tx); err != nil {
			return err
		}
		return tx.Create(run).Error
	})
}

func (r *runRepository) Reserve(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserve(tx, id); err != nil {
			return err
		}
		return ensureNoneStarted(tx)
	})
}

// reserve is the compare-and-swap on the slot row. Concurrent callers queue
// on the row lock and all but the first see a taken slot.
func reserve(tx *gorm.DB, id string) error {
	res := tx.Model(&models.ActiveRunSlot{}).
		Where("id = ? AND run_id IS NULL", models.ActiveRunSlotID).
		Updates(map[string]interface{}{
			"run_id":     id,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return errors.ConflictErr(activeRunMessage)
	}
	return nil
}

func ensureNoneStarted(tx *gorm.DB) error {
	var started int64
	if err := tx.Model(&models.Run{}).Where("state = ?", models.RunStarted).Count(&started).Error; err != nil {
		return err
	}
	if started > 0 {
		return errors.ConflictErr(activeRunMessage)
	}
	return nil
}

func release(tx *gorm.DB, id string) error {
	return tx.Model(&models.ActiveRunSlot{}).
		Where("id = ? AND run_id = ?", models.ActiveRunSlotID, id).
		Updates(map[string]interface{}{
			"run_id":     nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *runRepository) Release(ctx context.Context, id string) error {
	return release(r.db.WithContext(ctx), id)
}

// MarkStarted only moves a run that still holds the slot, so a reservation
// released underneath a slow submission never yields a second active run.
func (r *runRepository) MarkStarted(ctx context.Context, id, jobID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Run{}).
			Where("id = ? AND state = ?", id, models.RunCreated).
			Where("EXISTS (SELECT 1 FROM active_run_slots WHERE id = ? AND run_id = ?)", models.ActiveRunSlotID, id).
			Updates(map[string]interface{}{
				"state":  models.RunStarted,
				"job_id": jobID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		run, err := getRun(tx, id)
		if err != nil {
			return err
		}
		if run.State != models.RunCreated {
			return errors.BadRequestErr("run %s is %s, only CREATED runs can start", id, run.State)
		}
		return errors.ConflictErr(fmt.Sprintf("run %s no longer holds the active run slot", id))
	})
}

// ReleaseStale frees a slot reserved before the given time whose holder is
// not STARTED, or no longer exists. It returns the freed holder, empty when
// the slot was left alone.
func (r *runRepository) ReleaseStale(ctx context.Context, reservedBefore time.Time) (string, error) {
	var holder string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.ActiveRunSlot
		if err := tx.First(&slot, models.ActiveRunSlotID).Error; err != nil {
			return err
		}
		if slot.RunID == nil || !slot.UpdatedAt.Before(reservedBefore) {
			return nil
		}

		res := tx.Model(&models.ActiveRunSlot{}).
			Where("id = ? AND run_id = ?", models.ActiveRunSlotID, *slot.RunID).
			Where("NOT EXISTS (SELECT 1 FROM runs WHERE id = ? AND state = ?)", *slot.RunID, models.RunStarted).
			Updates(map[string]interface{}{
				"run_id":     nil,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			holder = *slot.RunID
		}
		return nil
	})
	return holder, err
}

func (r *runRepository) Finish(ctx context.Context, id string, state models.RunState, finishedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Run{}).
			Where("id = ? AND state = ?", id, models.RunStarted).
			Updates(map[string]interface{}{
				"state":       state,
				"finished_at": finishedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			run, err := getRun(tx, id)
			if err != nil {
				return err
			}
			return errors.BadRequestErr("run %s is %s, only STARTED runs can finish", id, run.State)
		}
		return release(tx, id)
	})
}

func (r *runRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getRun(tx, id); err != nil {
			return err
		}

		var podIDs []uint
		if err := tx.Model(&models.Pod{}).Where("run_id = ?", id).Pluck("id", &podIDs).Error; err != nil {
			return err
		}
		if len(podIDs) > 0 {
			if err := tx.Where("pod_id IN ?", podIDs).Delete(&models.Metric{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", podIDs).Delete(&models.Pod{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("run_id = ?", id).Delete(&models.Metric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Run{}).Error; err != nil {
			return err
		}
		return release(tx, id)
	})
}
