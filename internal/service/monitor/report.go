package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KNICEX/volume-radar/internal/service/exchange"
	"github.com/KNICEX/volume-radar/internal/service/strategy"
	"github.com/KNICEX/volume-radar/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	trendUp   = decimal.NewFromFloat(1.1)
	trendDown = decimal.NewFromFloat(0.9)
)

// volumeRow 同一合约同一周期的两条规则合并成一行, 各自的倍数分列显示, 零值表示没触发
type volumeRow struct {
	Source           string
	Instrument       exchange.Instrument
	CurrentVolume    decimal.Decimal
	PrevRatio        decimal.Decimal
	MARatio          decimal.Decimal
	DailyQuoteVolume decimal.Decimal
}

func (row *volumeRow) addRatio(kind strategy.FindingKind, ratio decimal.Decimal) {
	if kind == strategy.KindMovingAverage {
		row.MARatio = decimal.Max(row.MARatio, ratio)
		return
	}
	row.PrevRatio = decimal.Max(row.PrevRatio, ratio)
}

type report struct {
	prefix    string
	maxRows   int
	now       time.Time
	stats     []sourceStat
	intervals []exchange.Interval
	volume    map[exchange.Interval][]volumeRow
	turnover  []strategy.Finding
}

func newReport(cfg Config, spikeCfg strategy.SpikeConfig, now time.Time, stats []sourceStat, findings []strategy.Finding) *report {
	r := &report{
		prefix:  cfg.TitlePrefix,
		maxRows: cfg.MaxRows,
		now:     now,
		stats:   stats,
		intervals: lo.Map(spikeCfg.Intervals, func(item strategy.IntervalThreshold, index int) exchange.Interval {
			return item.Interval
		}),
		volume: make(map[exchange.Interval][]volumeRow),
	}

	turnover, volume := lo.FilterReject(findings, func(item strategy.Finding, index int) bool {
		return item.Kind == strategy.KindDailyTurnover
	})
	r.turnover = lo.UniqBy(turnover, func(item strategy.Finding) string {
		return item.Source + "/" + item.Instrument.ID
	})
	sort.SliceStable(r.turnover, func(i, j int) bool {
		return r.turnover[i].DailyQuoteVolume.GreaterThan(r.turnover[j].DailyQuoteVolume)
	})

	for interval, group := range lo.GroupBy(volume, func(item strategy.Finding) exchange.Interval { return item.Interval }) {
		rows := make(map[string]*volumeRow)
		var keys []string
		for _, f := range group {
			key := f.Source + "/" + f.Instrument.ID
			row, ok := rows[key]
			if !ok {
				row = &volumeRow{
					Source:           f.Source,
					Instrument:       f.Instrument,
					CurrentVolume:    f.CurrentVolume,
					DailyQuoteVolume: f.DailyQuoteVolume,
				}
				rows[key] = row
				keys = append(keys, key)
			}
			row.addRatio(f.Kind, f.Ratio)
		}
		list := lo.Map(keys, func(key string, _ int) volumeRow { return *rows[key] })
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CurrentVolume.GreaterThan(list[j].CurrentVolume)
		})
		r.volume[interval] = list
		if !lo.Contains(r.intervals, interval) {
			r.intervals = append(r.intervals, interval)
		}
	}
	return r
}

func formatRatio(ratio decimal.Decimal) string {
	if !ratio.IsPositive() {
		return "-"
	}
	return ratio.StringFixed(1) + "x"
}

func (r *report) spikeCount() int {
	return len(lo.UniqBy(lo.Flatten(lo.Values(r.volume)), func(item volumeRow) string {
		return item.Source + "/" + item.Instrument.ID
	}))
}

func (r *report) Title() string {
	spikes, turnover := r.spikeCount(), len(r.turnover)
	var summary string
	switch {
	case spikes > 0 && turnover > 0:
		summary = fmt.Sprintf("%d爆量+%d过亿", spikes, turnover)
	case spikes > 0:
		summary = fmt.Sprintf("发现%d个爆量", spikes)
	default:
		summary = fmt.Sprintf("发现%d个过亿", turnover)
	}
	return withPrefix(r.prefix, summary)
}

func (r *report) Body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# 📊 成交量异动\n\n时间: %s\n\n%s\n", r.now.Format(timeLayout), scanSummary(r.stats))

	for _, interval := range r.intervals {
		rows := r.volume[interval]
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## 🔥 %s爆量 (%d)\n\n", interval, len(rows))
		sb.WriteString("| 交易对 | 当前 | 环比 | 均线 | 当天 |\n| --- | --- | --- | --- | --- |\n")
		for _, row := range lo.Slice(rows, 0, r.maxRows) {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				displayName(row.Source, row.Instrument),
				decimalx.Humanize(row.CurrentVolume),
				formatRatio(row.PrevRatio),
				formatRatio(row.MARatio),
				decimalx.Humanize(row.DailyQuoteVolume),
			)
		}
		writeMoreNote(&sb, len(rows), r.maxRows)
	}

	if len(r.turnover) > 0 {
		fmt.Fprintf(&sb, "\n## 💰 日成交过亿 (%d)\n\n", len(r.turnover))
		sb.WriteString("| 交易对 | 当天 | 昨天 | 前天 | 趋势 |\n| --- | --- | --- | --- | --- |\n")
		for _, f := range lo.Slice(r.turnover, 0, r.maxRows) {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				displayName(f.Source, f.Instrument),
				historyAt(f, 0), historyAt(f, 1), historyAt(f, 2),
				trend(f.History),
			)
		}
		writeMoreNote(&sb, len(r.turnover), r.maxRows)
	}
	return sb.String()
}

func writeMoreNote(sb *strings.Builder, total, limit int) {
	if total > limit {
		fmt.Fprintf(sb, "\n*仅显示前%d个, 共%d个*\n", limit, total)
	}
}

func historyAt(f strategy.Finding, i int) string {
	if i >= len(f.History) {
		return "-"
	}
	return decimalx.Humanize(f.History[i])
}

// trend 当天对比昨天
func trend(history []decimal.Decimal) string {
	if len(history) < 2 || !history[1].IsPositive() {
		return "➡️"
	}
	change := history[0].Div(history[1])
	switch {
	case change.GreaterThan(trendUp):
		return "📈"
	case change.LessThan(trendDown):
		return "📉"
	default:
		return "➡️"
	}
}

func displayName(source string, inst exchange.Instrument) string {
	return fmt.Sprintf("%s %s", source, strings.TrimSuffix(inst.ID, "-SWAP"))
}

func scanSummary(stats []sourceStat) string {
	parts := lo.Map(stats, func(item sourceStat, index int) string {
		s := fmt.Sprintf("%s %d/%d", item.Source, item.Scanned, item.UniverseSize)
		if item.Failed > 0 {
			s += fmt.Sprintf(" (失败%d)", item.Failed)
		}
		return s
	})
	return "扫描: " + strings.Join(parts, ", ")
}

func withPrefix(prefix, s string) string {
	return strings.TrimSpace(prefix + " " + s)
}

func heartbeatMessage(prefix string, now time.Time, monitored int, lastAlert time.Time) (string, string) {
	var sb strings.Builder
	sb.WriteString("✅ 系统运行正常\n\n")
	fmt.Fprintf(&sb, "监控交易对: %d个\n", monitored)
	fmt.Fprintf(&sb, "时间: %s\n", now.Format(timeLayout))
	if lastAlert.IsZero() {
		sb.WriteString("距上次通知: 无记录\n")
	} else {
		fmt.Fprintf(&sb, "距上次通知: %.1f小时\n", now.Sub(lastAlert).Hours())
	}
	return withPrefix(prefix, "监控心跳"), sb.String()
}

func noUniverseMessage(prefix string, now time.Time, stats []sourceStat) (string, string) {
	var sb strings.Builder
	sb.WriteString("⚠️ 所有数据源都没有可扫描的交易对\n\n")
	fmt.Fprintf(&sb, "时间: %s\n\n", now.Format(timeLayout))
	for _, s := range stats {
		if s.RefreshErr != nil {
			fmt.Fprintf(&sb, "- %s: 刷新失败 (%s)\n", s.Source, s.RefreshErr)
			continue
		}
		fmt.Fprintf(&sb, "- %s: 0个\n", s.Source)
	}
	return withPrefix(prefix, "无可扫描交易对"), sb.String()
}

func appendCommentary(body, comment string) string {
	return body + "\n## 🤖 AI点评\n\n" + strings.TrimSpace(comment) + "\n"
}
