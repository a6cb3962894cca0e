package models

import "time"

// Metric is owned by exactly one of a pod or a run.
type Metric struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Name       string    `gorm:"column:name;not null;index" json:"name"`
	Date       time.Time `gorm:"column:date;not null" json:"date"`
	Value      string    `gorm:"column:value;not null" json:"value"`
	Metadata   string    `gorm:"column:metadata" json:"metadata"`
	Cumulative bool      `gorm:"column:cumulative" json:"cumulative"`
	PodID      *uint     `gorm:"column:pod_id;index;check:metric_single_owner,(pod_id IS NULL) <> (run_id IS NULL)" json:"-"`
	RunID      *string   `gorm:"column:run_id;size:36;index" json:"-"`
}

func (Metric) TableName() string {
	return "metrics"
}
