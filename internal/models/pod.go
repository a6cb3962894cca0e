package models

import "time"

type Pod struct {
	ID        uint              `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Name      string            `gorm:"column:name;size:253;not null;uniqueIndex" json:"name"`
	Labels    map[string]string `gorm:"column:labels;serializer:json" json:"labels"`
	IP        string            `gorm:"column:ip" json:"ip"`
	Phase     string            `gorm:"column:phase" json:"phase"`
	RunID     *string           `gorm:"column:run_id;size:36;index" json:"run_id,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (Pod) TableName() string {
	return "pods"
}
