package models

import "time"

type RunState string

const (
	RunCreated  RunState = "CREATED"
	RunStarted  RunState = "STARTED"
	RunFinished RunState = "FINISHED"
	RunFailed   RunState = "FAILED"
)

func (s RunState) Terminal() bool {
	return s == RunFinished || s == RunFailed
}

type Run struct {
	ID                    string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name                  string     `gorm:"column:name;not null" json:"name"`
	State                 RunState   `gorm:"column:state;size:16;not null;index" json:"state"`
	NumWorkers            int        `gorm:"column:num_workers" json:"num_workers"`
	CPULimit              string     `gorm:"column:cpu_limit" json:"cpu_limit"`
	NetworkBandwidthLimit int        `gorm:"column:network_bandwidth_limit" json:"network_bandwidth_limit"`
	JobID                 *string    `gorm:"column:job_id" json:"job_id"`
	CreatedAt             time.Time  `gorm:"column:created_at" json:"created_at"`
	FinishedAt            *time.Time `gorm:"column:finished_at" json:"finished_at"`
}

func (Run) TableName() string {
	return "runs"
}
