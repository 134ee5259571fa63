package entity

import "time"

// ScanCursor 每个数据源的轮询位置, LastIndex 指向下一轮第一个要扫描的合约
type ScanCursor struct {
	Source                string    `gorm:"primaryKey;size:32" json:"source"`
	LastIndex             int       `json:"last_index"`
	LastUniverseRefreshAt time.Time `json:"last_universe_refresh_at"`
	UpdatedAt             time.Time `json:"-"`
}
