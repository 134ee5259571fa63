package strategy

import (
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/shopspring/decimal"
)

type FindingKind string

const (
	// KindPrevInterval 当前周期成交量 / 上一个周期成交量
	KindPrevInterval FindingKind = "interval-over-previous-interval"
	// KindMovingAverage 当前周期成交量 / 最近 MAPeriod 个周期 (含当前) 的平均成交量
	KindMovingAverage FindingKind = "interval-over-moving-average"
	// KindDailyTurnover 当日成交额过亿
	KindDailyTurnover FindingKind = "daily-turnover"
)

// Finding 一次检测发现的异动, 只在本次运行内使用
type Finding struct {
	Source           string
	Instrument       exchange.Instrument
	Kind             FindingKind
	Interval         exchange.Interval
	Price            decimal.Decimal
	CurrentVolume    decimal.Decimal
	ReferenceVolume  decimal.Decimal
	Ratio            decimal.Decimal
	DailyQuoteVolume decimal.Decimal
	History          []decimal.Decimal // 日成交额, 最新的在前, 只有 KindDailyTurnover 有
	Timestamp        time.Time         // 当前K线开盘时间
}

// IntervalThreshold 某个周期的两个阈值, <= 0 表示关闭对应规则
type IntervalThreshold struct {
	Interval  exchange.Interval
	PrevRatio decimal.Decimal
	MARatio   decimal.Decimal
}

type SpikeConfig struct {
	Intervals           []IntervalThreshold
	MAPeriod            int
	CandleLimit         int
	MinDailyQuoteVolume decimal.Decimal
	TurnoverAlert       decimal.Decimal // 0 表示关闭
	TurnoverHistoryDays int
}

func DefaultSpikeConfig() SpikeConfig {
	return SpikeConfig{
		Intervals: []IntervalThreshold{
			{Interval: exchange.Interval1h, PrevRatio: decimal.NewFromInt(10), MARatio: decimal.NewFromInt(10)},
			{Interval: exchange.Interval4h, PrevRatio: decimal.NewFromInt(5), MARatio: decimal.NewFromInt(5)},
		},
		MAPeriod:            20,
		CandleLimit:         30,
		MinDailyQuoteVolume: decimal.NewFromInt(1_000_000),
		TurnoverAlert:       decimal.NewFromInt(100_000_000),
		TurnoverHistoryDays: 7,
	}
}

// DetectInput 一个合约的全部K线, 均为旧的在前
type DetectInput struct {
	Source     string
	Instrument exchange.Instrument
	Daily      []exchange.Kline
	Klines     map[exchange.Interval][]exchange.Kline
}
