package entity

import (
	"time"
)

// Spike 历史异动记录, 数值用字符串保存原始精度
type Spike struct {
	Id               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Source           string    `gorm:"index" json:"source"`
	InstId           string    `gorm:"index" json:"inst_id"`
	Kind             string    `gorm:"index" json:"kind"`
	Interval         string    `json:"interval"`
	Price            string    `json:"price"`
	CurrentVolume    string    `json:"current_volume"`
	ReferenceVolume  string    `json:"reference_volume"`
	Ratio            string    `json:"ratio"`
	DailyQuoteVolume string    `json:"daily_quote_volume"`
	CandleTime       time.Time `json:"candle_time"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}
