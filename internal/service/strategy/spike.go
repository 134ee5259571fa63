package strategy

import (
	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SpikeDetector 成交量异动检测, 纯计算, 可以并发使用
type SpikeDetector struct {
	cfg SpikeConfig
}

func NewSpikeDetector(cfg SpikeConfig) *SpikeDetector {
	if cfg.MAPeriod <= 0 {
		cfg.MAPeriod = 20
	}
	if cfg.CandleLimit < cfg.MAPeriod+1 {
		cfg.CandleLimit = cfg.MAPeriod + 1
	}
	return &SpikeDetector{cfg: cfg}
}

func (d *SpikeDetector) Config() SpikeConfig {
	return d.cfg
}

// DailyQuoteVolume 最近一根日线的成交额
func DailyQuoteVolume(daily []exchange.Kline) (decimal.Decimal, bool) {
	if len(daily) == 0 {
		return decimal.Zero, false
	}
	return daily[len(daily)-1].QuoteAssetVolume, true
}

// PassesLiquidity 成交额低于下限的合约不检测, 没有日线数据且设置了下限时也不检测
func (d *SpikeDetector) PassesLiquidity(daily []exchange.Kline) bool {
	if !d.cfg.MinDailyQuoteVolume.IsPositive() {
		return true
	}
	v, ok := DailyQuoteVolume(daily)
	return ok && v.GreaterThanOrEqual(d.cfg.MinDailyQuoteVolume)
}

// Detect 每个周期最多两个异动, 再加一个日成交额异动
func (d *SpikeDetector) Detect(in DetectInput) []Finding {
	if !d.PassesLiquidity(in.Daily) {
		return nil
	}
	dailyQuote, _ := DailyQuoteVolume(in.Daily)

	var findings []Finding
	for _, th := range d.cfg.Intervals {
		kLines := in.Klines[th.Interval]
		if f, ok := d.overPrevious(kLines, th.PrevRatio); ok {
			findings = append(findings, d.fill(f, in, th.Interval, dailyQuote))
		}
		if f, ok := d.overMovingAverage(kLines, th.MARatio); ok {
			findings = append(findings, d.fill(f, in, th.Interval, dailyQuote))
		}
	}
	if f, ok := d.dailyTurnover(in.Daily); ok {
		findings = append(findings, d.fill(f, in, exchange.Interval1d, dailyQuote))
	}
	return findings
}

func (d *SpikeDetector) fill(f Finding, in DetectInput, interval exchange.Interval, dailyQuote decimal.Decimal) Finding {
	f.Source = in.Source
	f.Instrument = in.Instrument
	f.Interval = interval
	f.DailyQuoteVolume = dailyQuote
	return f
}

func (d *SpikeDetector) overPrevious(kLines []exchange.Kline, threshold decimal.Decimal) (Finding, bool) {
	if !threshold.IsPositive() || len(kLines) < 2 {
		return Finding{}, false
	}
	cur, prev := kLines[len(kLines)-1], kLines[len(kLines)-2]
	ratio, ok := decimalx.Ratio(cur.Volume, prev.Volume)
	if !ok || ratio.LessThan(threshold) {
		return Finding{}, false
	}
	return Finding{
		Kind:            KindPrevInterval,
		Price:           cur.Close,
		CurrentVolume:   cur.Volume,
		ReferenceVolume: prev.Volume,
		Ratio:           ratio,
		Timestamp:       cur.OpenTime,
	}, true
}

// overMovingAverage 均线窗口包含当前K线, 至少需要 MAPeriod+1 根
func (d *SpikeDetector) overMovingAverage(kLines []exchange.Kline, threshold decimal.Decimal) (Finding, bool) {
	period := d.cfg.MAPeriod
	if !threshold.IsPositive() || len(kLines) < period+1 {
		return Finding{}, false
	}
	cur := kLines[len(kLines)-1]
	window := kLines[len(kLines)-period:]
	ma := decimalx.Mean(lo.Map(window, func(item exchange.Kline, index int) decimal.Decimal {
		return item.Volume
	}))
	ratio, ok := decimalx.Ratio(cur.Volume, ma)
	if !ok || ratio.LessThan(threshold) {
		return Finding{}, false
	}
	return Finding{
		Kind:            KindMovingAverage,
		Price:           cur.Close,
		CurrentVolume:   cur.Volume,
		ReferenceVolume: ma,
		Ratio:           ratio,
		Timestamp:       cur.OpenTime,
	}, true
}

func (d *SpikeDetector) dailyTurnover(daily []exchange.Kline) (Finding, bool) {
	if !d.cfg.TurnoverAlert.IsPositive() || len(daily) == 0 {
		return Finding{}, false
	}
	cur := daily[len(daily)-1]
	if cur.QuoteAssetVolume.LessThan(d.cfg.TurnoverAlert) {
		return Finding{}, false
	}
	days := d.cfg.TurnoverHistoryDays
	if days <= 0 || days > len(daily) {
		days = len(daily)
	}
	history := lo.Reverse(lo.Map(daily[len(daily)-days:], func(item exchange.Kline, index int) decimal.Decimal {
		return item.QuoteAssetVolume
	}))

	f := Finding{
		Kind:          KindDailyTurnover,
		Price:         cur.Close,
		CurrentVolume: cur.QuoteAssetVolume,
		History:       history,
		Timestamp:     cur.OpenTime,
	}
	if len(daily) >= 2 {
		prev := daily[len(daily)-2].QuoteAssetVolume
		f.ReferenceVolume = prev
		if ratio, ok := decimalx.Ratio(cur.QuoteAssetVolume, prev); ok {
			f.Ratio = ratio
		}
	}
	return f, true
}
