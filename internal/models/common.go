package models

import (
	"time"
)

// ActiveRunSlot is a single-row table. RunID names the run currently holding
// the active slot, or is NULL when no run is active.
type ActiveRunSlot struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	RunID     *string   `gorm:"column:run_id;size:36"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ActiveRunSlot) TableName() string {
	return "active_run_slots"
}

const ActiveRunSlotID = 1

func All() []interface{} {
	return []interface{}{
		&Run{},
		&Pod{},
		&Metric{},
		&ActiveRunSlot{},
	}
}
