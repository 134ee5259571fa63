package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Instrument 可交易合约, ID 在同一个数据源内唯一
type Instrument struct {
	Source string
	ID     string
	Base   string
	Quote  string
	Live   bool // 是否处于可交易状态
	Dated  bool // 交割/到期合约
}

func (i Instrument) String() string {
	return i.Source + ":" + i.ID
}

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

func (i Interval) Duration() time.Duration {
	switch i {
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval2h:
		return 2 * time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval6h:
		return 6 * time.Hour
	case Interval8h:
		return 8 * time.Hour
	case Interval12h:
		return 12 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval3d:
		return 72 * time.Hour
	case Interval1w:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

const (
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
)

type Kline struct {
	OpenTime         time.Time
	CloseTime        time.Time
	Open             decimal.Decimal
	Close            decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	Volume           decimal.Decimal // 成交量
	QuoteAssetVolume decimal.Decimal // 成交额
}

// CandleSource 行情数据源, 每个交易所一个实现
type CandleSource interface {
	Name() string
	// ListInstruments 返回全部合约, 不做过滤
	ListInstruments(ctx context.Context) ([]Instrument, error)
	// GetKlines 最近 limit 根K线, 按时间升序
	GetKlines(ctx context.Context, instrumentID string, interval Interval, limit int) ([]Kline, error)
}
