package entity

import (
	"time"
)

// Symbol 某个数据源的合约列表快照, Position 保存排序后的位置
type Symbol struct {
	Id        int64     `gorm:"primaryKey"`
	Source    string    `gorm:"uniqueIndex:symbol_idx;size:32" json:"source"`
	InstId    string    `gorm:"uniqueIndex:symbol_idx;size:64" json:"inst_id"`
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Position  int       `gorm:"index" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
