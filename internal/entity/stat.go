package entity

import "time"

const RunStatId = 1

// RunStat 运行统计, 只有一行
type RunStat struct {
	Id              int64     `gorm:"primaryKey" json:"-"`
	TotalRuns       int64     `json:"total_runs"`
	TotalFindings   int64     `json:"total_findings"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
	UpdatedAt       time.Time `json:"-"`
}
